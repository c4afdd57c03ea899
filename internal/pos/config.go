package pos

import "time"

// Environment selects the bank endpoint set.
type Environment string

const (
	EnvTest Environment = "test"
	EnvProd Environment = "prod"
)

// Valid reports whether the environment is one of the two known values.
func (e Environment) Valid() bool {
	return e == EnvTest || e == EnvProd
}

// Bank identifies a supported gateway. The set is closed: adding a bank means
// adding an adapter package and registering its factory, not changing shared
// logic.
type Bank string

const (
	BankKuveytTurk   Bank = "kuveytturk"
	BankVakifKatilim Bank = "vakifkatilim"
	BankParamPos     Bank = "parampos"
)

// Config is the per-merchant credential bundle for one bank. It is a secret
// bundle: it is never logged in cleartext and never serialised into error
// reports. Adapters validate the subset of fields they require at
// construction time.
type Config struct {
	MerchantID string
	CustomerID string
	Username   string
	Password   string

	// ClientCode and GUID are ParamPOS dealer credentials.
	ClientCode string
	GUID       string

	// Endpoints overrides the documented default URL per operation key.
	// Missing keys fall back to the bank defaults for the environment.
	Endpoints map[string]string

	// Timeout bounds each bank call. Zero means the bank-documented default.
	Timeout time.Duration
}

// Endpoint returns the override for key or fallback when none is set.
func (c Config) Endpoint(key, fallback string) string {
	if c.Endpoints != nil {
		if v, ok := c.Endpoints[key]; ok && v != "" {
			return v
		}
	}
	return fallback
}

// TimeoutOrDefault returns the configured timeout or def.
func (c Config) TimeoutOrDefault(def time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return def
}
