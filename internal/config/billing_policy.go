package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	NumberingScopeIssuerYear = "issuer_year"
	NumberingScopeIssuer     = "issuer"
)

// BillingPolicy represents the billing.toml policy file
type BillingPolicy struct {
	Documents DocumentPolicy  `toml:"documents"`
	Jobs      JobPolicy       `toml:"jobs"`
	Dashboard DashboardPolicy `toml:"dashboard"`
}

// DocumentPolicy controls dates and numbering of issued documents
type DocumentPolicy struct {
	InvoiceDueDays         int    `toml:"invoice_due_days"`
	NumberingScope         string `toml:"numbering_scope"`
	NumberingRetryAttempts int    `toml:"numbering_retry_attempts"`
}

// JobPolicy contains background job intervals
type JobPolicy struct {
	OverdueCheckInterval     Duration `toml:"overdue_check_interval"`
	ExpiryCheckInterval      Duration `toml:"expiry_check_interval"`
	DashboardRefreshInterval Duration `toml:"dashboard_refresh_interval"`
}

type DashboardPolicy struct {
	CacheTTL Duration `toml:"cache_ttl"`
}

// Duration decodes TOML strings such as "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// DefaultBillingPolicy is used when no policy file exists.
func DefaultBillingPolicy() *BillingPolicy {
	return &BillingPolicy{
		Documents: DocumentPolicy{
			InvoiceDueDays:         30,
			NumberingScope:         NumberingScopeIssuerYear,
			NumberingRetryAttempts: 3,
		},
		Jobs: JobPolicy{
			OverdueCheckInterval:     Duration{time.Hour},
			ExpiryCheckInterval:      Duration{time.Hour},
			DashboardRefreshInterval: Duration{5 * time.Minute},
		},
		Dashboard: DashboardPolicy{CacheTTL: Duration{5 * time.Minute}},
	}
}

// LoadBillingPolicy loads the policy from a TOML file. A missing file yields the defaults;
// keys absent from the file keep their default values.
func LoadBillingPolicy(filename string) (*BillingPolicy, error) {
	policy := DefaultBillingPolicy()
	if _, err := toml.DecodeFile(filename, policy); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return policy, nil
		}
		return nil, fmt.Errorf("failed to load billing policy file: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

func (p *BillingPolicy) Validate() error {
	switch p.Documents.NumberingScope {
	case NumberingScopeIssuerYear, NumberingScopeIssuer:
	default:
		return fmt.Errorf("invalid numbering_scope %q: must be %q or %q",
			p.Documents.NumberingScope, NumberingScopeIssuerYear, NumberingScopeIssuer)
	}
	if p.Documents.InvoiceDueDays < 0 {
		return errors.New("invoice_due_days cannot be negative")
	}
	if p.Documents.NumberingRetryAttempts < 1 {
		return errors.New("numbering_retry_attempts must be at least 1")
	}
	return nil
}

// SequenceYear returns the counter year for a document issued at t, or 0 when numbering
// runs across years.
func (p *BillingPolicy) SequenceYear(t time.Time) int {
	if p.Documents.NumberingScope == NumberingScopeIssuer {
		return 0
	}
	return t.Year()
}
