package shift

import (
	"context"
	"strings"

	"github.com/okian/shiftsheet/pkg/logger"
	"github.com/okian/shiftsheet/pkg/metrics"
)

// Skip reasons reported in logs and metrics.
const (
	skipNameMismatch   = "name_mismatch"
	skipMalformedTitle = "malformed_title"
)

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithRoles replaces the role code table. Empty maps are ignored.
func WithRoles(roles map[string]string) Option {
	return func(p *Parser) {
		if len(roles) == 0 {
			return
		}
		p.roles = make(map[string]string, len(roles))
		for code, position := range roles {
			p.roles[code] = position
		}
	}
}

// WithLogger sets the logger used for skip diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// Parser extracts shift records for one person from calendar events.
type Parser struct {
	roles  map[string]string
	logger logger.Logger
}

// NewParser constructs a Parser using DefaultRoles unless overridden.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		roles:  DefaultRoles(),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve maps a role code to its position; unknown codes yield "".
func (p *Parser) Resolve(code string) string {
	return p.roles[code]
}

// Parse returns one record per event whose title names the person and
// carries a parsable "(<role> <hours>)" group, in input order. Everything
// else is dropped without error.
func (p *Parser) Parse(ctx context.Context, events []CalendarEvent, name string) []Record {
	records := make([]Record, 0)
	for _, ev := range events {
		metrics.RecordEventSeen()

		ex, ok := ExtractShift(ev.Title, name)
		if !ok {
			reason := skipMalformedTitle
			if !containsName(ev.Title, name) {
				reason = skipNameMismatch
			} else {
				p.logger.Debug(ctx, "skipping event with malformed title",
					logger.String("eventID", ev.ID),
					logger.String("title", ev.Title),
				)
			}
			metrics.RecordEventSkipped(reason)
			continue
		}

		location := ev.Location
		if location == "" {
			location = DefaultLocation
		}

		rec := Record{
			Start:    ev.Start,
			End:      ev.End,
			Location: location,
			Hours:    ex.Hours,
			RoleCode: ex.RoleCode,
			Position: p.Resolve(ex.RoleCode),
		}
		if rec.Position == "" {
			metrics.RecordUnknownRole()
		}
		metrics.RecordShiftExtracted()
		records = append(records, rec)
	}
	return records
}

// Parse runs a default Parser.
func Parse(ctx context.Context, events []CalendarEvent, name string) []Record {
	return NewParser().Parse(ctx, events, name)
}

func containsName(title, name string) bool {
	return name != "" && strings.Contains(title, name)
}
