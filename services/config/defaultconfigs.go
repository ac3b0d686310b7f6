package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPico = `{
  "monitor": {
      "interval_ms": 1000
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
}
