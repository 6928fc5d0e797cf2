package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

const digestWindow = 24 * time.Hour

// StartDigestScheduler posts a periodic at-risk summary to the alert
// channel. The schedule is a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
// Examples: "0 9 * * *" (daily 9am), "0 9 * * 1-5" (weekdays 9am).
func StartDigestScheduler(cfg Config, db *sql.DB, api *slack.Client) {
	schedule := strings.TrimSpace(cfg.DigestSchedule)
	if schedule == "" {
		log.Println("Digest disabled (digest_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid digest_schedule '%s': %v, digest disabled", schedule, err)
		return
	}

	log.Printf("Risk digest scheduled (cron: %s) to channel %s", schedule, cfg.SlackAlertChannel)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next risk digest at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			msg, err := BuildDigestMessage(db, time.Now().Add(-digestWindow), cfg.AlertThreshold)
			if err != nil {
				log.Printf("Digest query error: %v", err)
				continue
			}
			_, _, postErr := api.PostMessage(cfg.SlackAlertChannel, slack.MsgOptionText(msg, false))
			if postErr != nil {
				log.Printf("Digest post error: %v", postErr)
			} else {
				log.Printf("Digest posted: %s", msg)
			}
		}
	}()
}

func BuildDigestMessage(db *sql.DB, since time.Time, threshold float64) (string, error) {
	total, atRisk, err := CountPredictionsSince(db, since, threshold)
	if err != nil {
		return "", err
	}
	if total == 0 {
		return "Risk digest: no predictions in the window", nil
	}
	return fmt.Sprintf("Risk digest: %d of %d predictions since %s were at or above %.2f risk",
		atRisk, total, since.Format("Jan 2 15:04"), threshold), nil
}
