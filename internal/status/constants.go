// internal/status/constants.go
package status

// Device status layout constants.
// These values are read by dashboards and MUST NOT be configurable.

// ---- HASH FIELDS ----

// FieldHealth holds the device health state.
const FieldHealth = "health"

// FieldLastErrorCode holds the taxonomy code of the last failure.
const FieldLastErrorCode = "last_error_code"

// FieldLastError holds the text of the last failure.
const FieldLastError = "last_error"

// FieldSecondsInError holds the duration (in seconds) the device has been in error.
const FieldSecondsInError = "seconds_in_error"

// FieldLastSuccess holds the unix millisecond time of the last good cycle.
const FieldLastSuccess = "last_success_ms"

// FieldModel holds the model identity string read at startup.
const FieldModel = "model"

// ---- LIMITS ----

// MaxSecondsInError caps seconds_in_error; it never wraps.
const MaxSecondsInError = 65535

// ModelMaxChars is the maximum number of characters stored for the model.
const ModelMaxChars = 30

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy device.
const HealthOK uint16 = 1

// HealthError represents a device error state.
const HealthError uint16 = 2

// ---- ERROR CODES ----

// CodeGeneric is used for errors that carry no taxonomy code.
const CodeGeneric uint16 = 1

// CodeTransport covers fieldbus read failures and connection loss.
const CodeTransport uint16 = 10

// CodeDecode covers register blocks shorter than the schema declares.
const CodeDecode uint16 = 20

// CodeStore covers store command failures and self-test mismatches.
const CodeStore uint16 = 30

// CodeSchema covers missing or malformed definitions.
const CodeSchema uint16 = 40
