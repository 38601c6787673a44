// Package statsfeed keeps a LiveStatistics current from a stream of JSON snapshots,
// one object per line, as emitted by the display statistics extension.
package statsfeed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bnema/guac-console/internal/domain"
	jsoniter "github.com/json-iterator/go"
)

const maxLineBytes = 64 << 10

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sink receives decoded snapshots.
type Sink interface {
	Merge(partial domain.StatisticsSnapshot)
}

type Result struct {
	Applied int
	Skipped int
}

type Feed struct {
	log *slog.Logger
	// Strict stops at the first malformed line instead of skipping it.
	Strict bool
}

func New(log *slog.Logger) *Feed {
	return &Feed{log: log}
}

// Run applies every snapshot read from r to sink until r is exhausted or ctx is done.
// Each line updates only the fields it names.
func (f *Feed) Run(ctx context.Context, r io.Reader, sink Sink) (Result, error) {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var result Result
	lineNo := 0
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return result, fmt.Errorf("read statistics stream: %w", err)
				}
				return result, nil
			}

			lineNo++
			if strings.TrimSpace(line) == "" {
				continue
			}

			snapshot, err := Decode([]byte(line))
			if err != nil {
				if f.Strict {
					return result, fmt.Errorf("line %d: %w", lineNo, err)
				}
				result.Skipped++
				f.log.Warn("skipping malformed statistics line", "line", lineNo, "error", err)
				continue
			}

			sink.Merge(snapshot)
			result.Applied++
			f.log.Debug("statistics updated", "line", lineNo)
		}
	}
}

// Decode parses one snapshot. Unknown fields are ignored and null leaves a field unset.
func Decode(data []byte) (domain.StatisticsSnapshot, error) {
	var snapshot domain.StatisticsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.StatisticsSnapshot{}, fmt.Errorf("decode statistics: %w", err)
	}
	if snapshot == (domain.StatisticsSnapshot{}) && !isObject(data) {
		return domain.StatisticsSnapshot{}, errors.New("decode statistics: not a JSON object")
	}
	return snapshot, nil
}

func isObject(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, "{")
}
