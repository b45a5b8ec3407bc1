// Seed posts a synthetic 30-day diary history to a locally running
// server so the run, snapshot and insight surfaces have data to show.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/mlenart/diary-insights/internal/config"
	"github.com/mlenart/diary-insights/internal/domain"
)

func main() {
	cfg := config.Load()

	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()

	entries := make([]domain.RawEntry, 0, 30)
	for i := 29; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)

		// Bedtime between 22:00 and 00:59, wake between 06:00 and 08:59.
		bedHour := (22 + rng.Intn(3)) % 24
		bed := fmt.Sprintf("%02d%02d", bedHour, rng.Intn(60))
		wake := fmt.Sprintf("%d:%02d", 6+rng.Intn(3), rng.Intn(60))

		mood := 4 + rng.Intn(5)
		energy := 4 + rng.Intn(5)
		quality := 4 + rng.Intn(6)
		screen := float64(30 + rng.Intn(180))

		var activities []string
		if rng.Float32() < 0.4 {
			activities = append(activities, "meditation")
			// Meditation days nudge the next morning's mood upward.
			if mood < 10 {
				mood++
			}
		}
		if rng.Float32() < 0.3 {
			activities = append(activities, "running")
		}

		entries = append(entries, domain.RawEntry{
			Timestamp:     time.Date(date.Year(), date.Month(), date.Day(), 9, rng.Intn(60), 0, 0, time.UTC),
			BedtimeRaw:    bed,
			WakeTimeRaw:   wake,
			Activities:    activities,
			Mood:          &mood,
			Energy:        &energy,
			SleepQuality:  &quality,
			ScreenMinutes: &screen,
		})
	}

	body, err := json.Marshal(map[string]any{"entries": entries})
	if err != nil {
		log.Fatalf("Failed to marshal entries: %v", err)
	}

	url := fmt.Sprintf("http://localhost:%s/v1/runs", cfg.Port)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Failed to submit run to %s: %v", url, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("Run rejected (%d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		RunID    string            `json:"run_id"`
		Insights domain.InsightSet `json:"insights"`
		Warnings []domain.Warning  `json:"warnings"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		log.Fatalf("Failed to decode run response: %v", err)
	}

	log.Printf("Seed run %s completed (%d insights, %d warnings)", result.RunID, len(result.Insights), len(result.Warnings))
	for _, ins := range result.Insights {
		fmt.Printf("  %s\n", ins.Summary)
	}
	fmt.Printf("\nInspect the run:\n  curl localhost:%s/v1/runs/%s\n  curl localhost:%s/v1/snapshot\n", cfg.Port, result.RunID, cfg.Port)
}
