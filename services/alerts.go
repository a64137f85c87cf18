package services

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cruise-deal-scraper/models"
	"cruise-deal-scraper/utils"
)

// AlertService surfaces good-value deals at the end of a run: a console
// banner plus a JSON dump for anything downstream that watches the file.
type AlertService struct {
	threshold float64
	filePath  string
	logger    *utils.Logger
}

func NewAlertService(threshold float64, filePath string, logger *utils.Logger) *AlertService {
	return &AlertService{threshold: threshold, filePath: filePath, logger: logger}
}

// Notify prints each deal under the threshold and writes the set to the
// alert file. Returns the alerted deals.
func (s *AlertService) Notify(deals []*models.CruiseDeal) []*models.CruiseDeal {
	var good []*models.CruiseDeal
	for _, d := range deals {
		if d.IsGoodDeal(s.threshold) {
			good = append(good, d)
		}
	}
	if len(good) == 0 {
		s.logger.Info("No deals under $%.0f/day this run", s.threshold)
		return nil
	}

	fmt.Printf("\n DEAL ALERTS (under $%.0f/day)\n", s.threshold)
	for _, d := range good {
		fmt.Printf("  • %s\n", d.String())
	}

	if s.filePath != "" {
		if err := s.writeFile(good); err != nil {
			s.logger.Error("Failed to write alert file: %v", err)
		} else {
			s.logger.Success("Wrote %d alerts to %s", len(good), s.filePath)
		}
	}
	return good
}

func (s *AlertService) writeFile(good []*models.CruiseDeal) error {
	payload := struct {
		GeneratedAt time.Time            `json:"generated_at"`
		Threshold   float64              `json:"threshold_per_day"`
		Deals       []*models.CruiseDeal `json:"deals"`
	}{time.Now(), s.threshold, good}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0644)
}
