package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cruise-deal-scraper/models"
	"cruise-deal-scraper/utils"

	_ "github.com/lib/pq"
)

// PostgresStore persists deals and promo codes in PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens the connection pool and pings the DB
func NewPostgresStore(connStr string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return &PostgresStore{db: db, logger: logger}, nil
}

// CreateTables creates the deal and promo tables if they don't exist, with
// the five-tuple uniqueness constraint that upserts key on
func (s *PostgresStore) CreateTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS cruise_deals (
		id                SERIAL PRIMARY KEY,
		cruise_line       VARCHAR(100) NOT NULL,
		ship_name         VARCHAR(200) NOT NULL,
		destination       VARCHAR(200) NOT NULL,
		departure_date    DATE         NOT NULL,
		duration_days     INTEGER      NOT NULL,
		departure_port    VARCHAR(200),
		total_price_aud   NUMERIC(10,2) DEFAULT 0,
		price_per_day     NUMERIC(10,2) DEFAULT 0,
		cabin_type        VARCHAR(50),
		url               TEXT,
		special_offers    TEXT,
		image_url         TEXT,
		price_2p_interior NUMERIC(10,2) DEFAULT 0,
		price_4p_interior NUMERIC(10,2) DEFAULT 0,
		itinerary         TEXT,
		cabin_pricing     TEXT,
		inclusions        TEXT,
		is_active         BOOLEAN      NOT NULL DEFAULT TRUE,
		last_updated      TIMESTAMP    NOT NULL DEFAULT NOW(),
		scraped_at        TIMESTAMP    NOT NULL DEFAULT NOW(),
		CONSTRAINT uq_deal_identity UNIQUE (cruise_line, ship_name, destination, departure_date, duration_days)
	);

	CREATE INDEX IF NOT EXISTS idx_deals_price_per_day ON cruise_deals (price_per_day);
	CREATE INDEX IF NOT EXISTS idx_deals_cruise_line   ON cruise_deals (cruise_line);
	CREATE INDEX IF NOT EXISTS idx_deals_departure     ON cruise_deals (departure_date);
	CREATE INDEX IF NOT EXISTS idx_deals_active        ON cruise_deals (is_active);

	CREATE TABLE IF NOT EXISTS promo_codes (
		id              SERIAL PRIMARY KEY,
		code            VARCHAR(50)  NOT NULL UNIQUE,
		cruise_line     VARCHAR(100) NOT NULL,
		description     TEXT,
		discount_type   VARCHAR(30),
		discount_value  NUMERIC(10,2) DEFAULT 0,
		valid_from      TIMESTAMP,
		valid_until     TIMESTAMP,
		conditions      TEXT,
		source_url      TEXT,
		status          VARCHAR(30)  NOT NULL DEFAULT 'unknown',
		last_validated  TIMESTAMP,
		combinable_with TEXT,
		upvotes         INTEGER      NOT NULL DEFAULT 0,
		downvotes       INTEGER      NOT NULL DEFAULT 0,
		user_submitted  BOOLEAN      NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_promo_cruise_line ON promo_codes (cruise_line);
	CREATE INDEX IF NOT EXISTS idx_promo_status      ON promo_codes (status);
	`
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	s.logger.Info("Tables 'cruise_deals' and 'promo_codes' are ready")
	return nil
}

// UpsertDeals writes deals in a single transaction. An existing five-tuple
// gets its mutable fields updated in place and is re-activated; identity
// fields never change on conflict.
func (s *PostgresStore) UpsertDeals(ctx context.Context, deals []*models.CruiseDeal) (inserted, updated int, err error) {
	if len(deals) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cruise_deals (
			cruise_line, ship_name, destination, departure_date, duration_days,
			departure_port, total_price_aud, price_per_day, cabin_type, url,
			special_offers, image_url, price_2p_interior, price_4p_interior,
			itinerary, cabin_pricing, inclusions, is_active, last_updated, scraped_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,TRUE,NOW(),$18)
		ON CONFLICT ON CONSTRAINT uq_deal_identity DO UPDATE SET
			departure_port    = COALESCE(NULLIF(EXCLUDED.departure_port, ''), cruise_deals.departure_port),
			total_price_aud   = EXCLUDED.total_price_aud,
			price_per_day     = EXCLUDED.price_per_day,
			cabin_type        = COALESCE(NULLIF(EXCLUDED.cabin_type, ''), cruise_deals.cabin_type),
			url               = COALESCE(NULLIF(EXCLUDED.url, ''), cruise_deals.url),
			special_offers    = COALESCE(NULLIF(EXCLUDED.special_offers, ''), cruise_deals.special_offers),
			image_url         = COALESCE(NULLIF(EXCLUDED.image_url, ''), cruise_deals.image_url),
			price_2p_interior = GREATEST(EXCLUDED.price_2p_interior, cruise_deals.price_2p_interior),
			price_4p_interior = GREATEST(EXCLUDED.price_4p_interior, cruise_deals.price_4p_interior),
			itinerary         = COALESCE(NULLIF(EXCLUDED.itinerary, ''), cruise_deals.itinerary),
			cabin_pricing     = COALESCE(NULLIF(EXCLUDED.cabin_pricing, ''), cruise_deals.cabin_pricing),
			inclusions        = COALESCE(NULLIF(EXCLUDED.inclusions, ''), cruise_deals.inclusions),
			is_active         = TRUE,
			last_updated      = NOW(),
			scraped_at        = EXCLUDED.scraped_at
		RETURNING (xmax = 0)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range deals {
		var isInsert bool
		row := stmt.QueryRowContext(ctx,
			d.CruiseLine,
			d.ShipName,
			d.Destination,
			d.DepartureDate.Format("2006-01-02"),
			d.DurationDays,
			d.DeparturePort,
			d.TotalPriceAUD,
			finitePerDay(d.PricePerDay),
			d.CabinType,
			d.URL,
			d.SpecialOffers,
			d.ImageURL,
			d.Price2PInterior,
			d.Price4PInterior,
			marshalJSON(d.Itinerary),
			marshalJSON(d.CabinPricing),
			marshalJSON(d.Inclusions),
			d.ScrapedAt,
		)
		if scanErr := row.Scan(&isInsert); scanErr != nil {
			s.logger.Warn("Skipping upsert for %s/%s: %v", d.CruiseLine, d.ShipName, scanErr)
			continue
		}
		if isInsert {
			inserted++
		} else {
			updated++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Upserted deals: %d inserted, %d updated", inserted, updated)
	return inserted, updated, nil
}

// finitePerDay maps the +Inf sentinel onto 0 for storage; NUMERIC columns
// reject infinities.
func finitePerDay(v float64) float64 {
	if v > 1e9 {
		return 0
	}
	return v
}

func marshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return ""
	}
	return string(data)
}

// MarkStale deactivates deals that no source has reported since the cutoff
func (s *PostgresStore) MarkStale(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cruise_deals SET is_active = FALSE WHERE is_active AND last_updated < $1`,
		olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale deals: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Info("Marked %d deals as stale", n)
	}
	return n, nil
}

// ListDeals queries deals with the given filter, cheapest per day first
func (s *PostgresStore) ListDeals(ctx context.Context, f DealFilter) ([]*models.CruiseDeal, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CruiseLine != "" {
		conds = append(conds, "cruise_line = "+arg(f.CruiseLine))
	}
	if f.DeparturePort != "" {
		conds = append(conds, "departure_port ILIKE "+arg("%"+f.DeparturePort+"%"))
	}
	if f.MaxPricePerDay > 0 {
		conds = append(conds, "price_per_day > 0 AND price_per_day <= "+arg(f.MaxPricePerDay))
	}
	if f.MinDuration > 0 {
		conds = append(conds, "duration_days >= "+arg(f.MinDuration))
	}
	if f.MaxDuration > 0 {
		conds = append(conds, "duration_days <= "+arg(f.MaxDuration))
	}
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}

	query := `SELECT cruise_line, ship_name, destination, departure_date, duration_days,
		departure_port, total_price_aud, price_per_day, cabin_type, url,
		special_offers, image_url, price_2p_interior, price_4p_interior,
		itinerary, cabin_pricing, inclusions, scraped_at
	FROM cruise_deals`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY price_per_day = 0, price_per_day ASC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer rows.Close()

	var deals []*models.CruiseDeal
	for rows.Next() {
		d := &models.CruiseDeal{}
		var port, cabin, url, offers, image, itinerary, cabins, inclusions sql.NullString
		if err := rows.Scan(
			&d.CruiseLine, &d.ShipName, &d.Destination, &d.DepartureDate, &d.DurationDays,
			&port, &d.TotalPriceAUD, &d.PricePerDay, &cabin, &url,
			&offers, &image, &d.Price2PInterior, &d.Price4PInterior,
			&itinerary, &cabins, &inclusions, &d.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		d.DeparturePort = port.String
		d.CabinType = cabin.String
		d.URL = url.String
		d.SpecialOffers = offers.String
		d.ImageURL = image.String
		if itinerary.String != "" {
			_ = json.Unmarshal([]byte(itinerary.String), &d.Itinerary)
		}
		if cabins.String != "" {
			_ = json.Unmarshal([]byte(cabins.String), &d.CabinPricing)
		}
		if inclusions.String != "" {
			_ = json.Unmarshal([]byte(inclusions.String), &d.Inclusions)
		}
		d.Recompute()
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// UpsertPromoCodes writes the promo catalogue in a single transaction
func (s *PostgresStore) UpsertPromoCodes(ctx context.Context, codes []*models.PromoCode) error {
	if len(codes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO promo_codes (
			code, cruise_line, description, discount_type, discount_value,
			valid_from, valid_until, conditions, source_url, status,
			last_validated, combinable_with, upvotes, downvotes, user_submitted
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (code) DO UPDATE SET
			description     = EXCLUDED.description,
			discount_type   = EXCLUDED.discount_type,
			discount_value  = EXCLUDED.discount_value,
			valid_from      = EXCLUDED.valid_from,
			valid_until     = EXCLUDED.valid_until,
			conditions      = EXCLUDED.conditions,
			status          = EXCLUDED.status,
			last_validated  = EXCLUDED.last_validated,
			combinable_with = EXCLUDED.combinable_with
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range codes {
		if _, execErr := stmt.ExecContext(ctx,
			p.Code, p.CruiseLine, p.Description, p.DiscountType, p.DiscountValue,
			p.ValidFrom, p.ValidUntil, p.Conditions, p.SourceURL, string(p.Status),
			p.LastValidated, marshalJSON(p.CombinableWith), p.Upvotes, p.Downvotes, p.UserSubmitted,
		); execErr != nil {
			s.logger.Warn("Skipping promo upsert for %s: %v", p.Code, execErr)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.Info("Upserted %d promo codes", len(codes))
	return nil
}

// ListPromoCodes returns codes for a cruise line ("" for all)
func (s *PostgresStore) ListPromoCodes(ctx context.Context, cruiseLine string, validOnly bool) ([]*models.PromoCode, error) {
	query := `SELECT code, cruise_line, description, discount_type, discount_value,
		valid_from, valid_until, conditions, source_url, status,
		last_validated, combinable_with, upvotes, downvotes, user_submitted
	FROM promo_codes`
	var (
		conds []string
		args  []interface{}
	)
	if cruiseLine != "" {
		args = append(args, cruiseLine)
		conds = append(conds, fmt.Sprintf("cruise_line = $%d", len(args)))
	}
	if validOnly {
		conds = append(conds, "status NOT IN ('invalid', 'expired')")
		conds = append(conds, "(valid_from IS NULL OR valid_from <= NOW())")
		conds = append(conds, "(valid_until IS NULL OR valid_until >= NOW())")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY cruise_line, code"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query promo codes: %w", err)
	}
	defer rows.Close()

	var codes []*models.PromoCode
	for rows.Next() {
		p := &models.PromoCode{}
		var desc, conditions, source, combinable sql.NullString
		var status string
		if err := rows.Scan(
			&p.Code, &p.CruiseLine, &desc, &p.DiscountType, &p.DiscountValue,
			&p.ValidFrom, &p.ValidUntil, &conditions, &source, &status,
			&p.LastValidated, &combinable, &p.Upvotes, &p.Downvotes, &p.UserSubmitted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		p.Description = desc.String
		p.Conditions = conditions.String
		p.SourceURL = source.String
		p.Status = models.PromoCodeStatus(status)
		if combinable.String != "" {
			_ = json.Unmarshal([]byte(combinable.String), &p.CombinableWith)
		}
		codes = append(codes, p)
	}
	return codes, rows.Err()
}

// Close closes the database connection
func (s *PostgresStore) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}
