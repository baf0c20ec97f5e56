package shared

// Variant is the visual severity shared by badges and notifications.
type Variant string

const (
	VariantInfo    Variant = "info"
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantError   Variant = "error"
)

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	switch v {
	case VariantInfo, VariantSuccess, VariantWarning, VariantError:
		return true
	}
	return false
}

func (v Variant) String() string {
	return string(v)
}
