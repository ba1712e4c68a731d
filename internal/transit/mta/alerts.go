package mta

import (
	"time"

	"github.com/transitdeck/transitdeck/internal/transit"
)

// Subway-alerts feed structures. The feed is GTFS-rt rendered as JSON with
// MTA's mercury extensions attached to each alert.

type alertsResponse struct {
	Entity []alertEntity `json:"entity"`
}

type alertEntity struct {
	ID    string     `json:"id"`
	Alert *alertBody `json:"alert"`
}

type alertBody struct {
	InformedEntity []informedEntity `json:"informed_entity"`
	HeaderText     *translatedText  `json:"header_text"`
	Mercury        *mercuryAlert    `json:"transit_realtime.mercury_alert"`
}

type informedEntity struct {
	RouteID string `json:"route_id"`
}

type translatedText struct {
	Translation []translation `json:"translation"`
}

type translation struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type mercuryAlert struct {
	AlertType string `json:"alert_type"`
	UpdatedAt int64  `json:"updated_at"`
}

// englishText picks the English translation, falling back to the first one.
func (t *translatedText) englishText() string {
	if t == nil || len(t.Translation) == 0 {
		return ""
	}
	for _, tr := range t.Translation {
		if tr.Language == "en" {
			return tr.Text
		}
	}
	return t.Translation[0].Text
}

// toIncident converts one alert entity to the normalized model.
func toIncident(e *alertEntity, now time.Time) transit.TransitIncident {
	alert := e.Alert

	lines := make([]string, 0, len(alert.InformedEntity))
	for _, informed := range alert.InformedEntity {
		lines = append(lines, informed.RouteID)
	}

	description := alert.HeaderText.englishText()
	if description == "" {
		description = "Service alert"
	}

	alertType := "Alert"
	timestamp := now.UTC().Format(time.RFC3339)
	if alert.Mercury != nil {
		if alert.Mercury.AlertType != "" {
			alertType = alert.Mercury.AlertType
		}
		if alert.Mercury.UpdatedAt > 0 {
			timestamp = time.Unix(alert.Mercury.UpdatedAt, 0).UTC().Format(time.RFC3339)
		}
	}

	return transit.TransitIncident{
		City:          transit.CityNYC,
		IncidentID:    e.ID,
		Description:   description,
		LinesAffected: transit.DedupLines(lines),
		Severity:      alertType,
		IncidentType:  alertType,
		Timestamp:     timestamp,
	}
}
