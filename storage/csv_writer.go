package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cruise-deal-scraper/models"
	"cruise-deal-scraper/utils"
)

// CSVWriter handles exporting deduplicated deals to a CSV file
type CSVWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(filePath string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

// WriteDeals writes a slice of deals to the CSV file
func (w *CSVWriter) WriteDeals(deals []*models.CruiseDeal) error {
	// Ensure output directory exists
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"cruise_line", "ship_name", "destination", "departure_date",
		"duration_days", "departure_port", "total_price_aud", "price_per_day",
		"cabin_type", "url", "special_offers", "image_url", "scraped_at",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, d := range deals {
		row := []string{
			d.CruiseLine,
			d.ShipName,
			d.Destination,
			d.DepartureDate.Format("2006-01-02"),
			strconv.Itoa(d.DurationDays),
			d.DeparturePort,
			fmt.Sprintf("%.2f", d.TotalPriceAUD),
			fmt.Sprintf("%.2f", d.PricePerDay),
			d.CabinType,
			d.URL,
			d.SpecialOffers,
			d.ImageURL,
			d.ScrapedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			w.logger.Error("Failed to write CSV row for '%s': %v", d.ShipName, err)
		}
	}

	w.logger.Info("Deals written to: %s (%d rows)", w.filePath, len(deals))
	return nil
}
