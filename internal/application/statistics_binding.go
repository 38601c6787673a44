package application

import (
	"math"

	"github.com/bnema/guac-console/internal/domain"
	"github.com/bnema/guac-console/internal/ports"
)

// StatisticField is one labelled row of the statistics display.
type StatisticField struct {
	Key   string
	Label string
	Value *float64
}

// StatisticsBinding exposes the live statistics of a session to a renderer. It holds
// no values of its own; every read goes back to the source.
type StatisticsBinding struct {
	source ports.StatisticsSource
}

func NewStatisticsBinding(source ports.StatisticsSource) *StatisticsBinding {
	return &StatisticsBinding{source: source}
}

func (b *StatisticsBinding) Statistics() domain.StatisticsSnapshot {
	return b.source.Statistics()
}

// Fields returns the four display rows in display order.
func (b *StatisticsBinding) Fields() []StatisticField {
	snapshot := b.source.Statistics()
	return []StatisticField{
		{Key: "desktop-fps", Label: "Desktop framerate", Value: snapshot.DesktopFPS},
		{Key: "server-fps", Label: "Server framerate", Value: snapshot.ServerFPS},
		{Key: "client-fps", Label: "Client framerate", Value: snapshot.ClientFPS},
		{Key: "drop-rate", Label: "Drop rate", Value: snapshot.DropRate},
	}
}

// HasValue reports whether field holds a number.
func (b *StatisticsBinding) HasValue(field *float64) bool {
	return HasValue(field)
}

// Round returns field rounded to the nearest integer, halves away from zero.
// A field without a value rounds to 0.
func (b *StatisticsBinding) Round(field *float64) int64 {
	return Round(field)
}

func HasValue(field *float64) bool {
	return field != nil && !math.IsNaN(*field)
}

func Round(field *float64) int64 {
	if !HasValue(field) {
		return 0
	}
	return int64(math.Round(*field))
}
