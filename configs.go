package apiclient

// Key identifies a typed slot in Configs.  Keys are compared by identity, so each
// slot should be declared once, usually as a package-level variable:
//
//     var tenantKey = apiclient.NewKey("tenant", func() string { return "default" })
//
// The default function is consulted whenever the slot has not been set, so reading
// a slot never fails.
type Key[V any] struct {
	name string
	def  func() V
}

// NewKey creates a new slot.  def may be nil, in which case the zero value of V is
// the default.
func NewKey[V any](name string, def func() V) *Key[V] {
	return &Key[V]{name: name, def: def}
}

// String returns the name of the key.
func (k *Key[V]) String() string {
	return k.name
}

// Default returns the value used when the slot is absent.
func (k *Key[V]) Default() V {
	if k.def == nil {
		var zero V
		return zero
	}
	return k.def()
}

// Configs is a copy-on-write bag of per-call settings.  The zero value is empty
// and ready to use.
//
// Configs is a value type: setting a slot returns an updated copy and never changes
// the receiver, so Configs captured by one call can't observe changes made for
// another.
type Configs struct {
	values map[any]any
}

// Lookup returns the value stored for k, and whether it was set.
func Lookup[V any](c Configs, k *Key[V]) (V, bool) {
	v, ok := c.lookup(k)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// GetConfig returns the value stored for k, or the key's default.
func GetConfig[V any](c Configs, k *Key[V]) V {
	if v, ok := Lookup(c, k); ok {
		return v
	}
	return k.Default()
}

// Set returns a copy of c with k set to v.
func Set[V any](c Configs, k *Key[V], v V) Configs {
	return c.with(k, v)
}

// Len returns the number of explicitly set slots.
func (c Configs) Len() int {
	return len(c.values)
}

func (c Configs) lookup(key any) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c Configs) with(key, value any) Configs {
	values := make(map[any]any, len(c.values)+1)
	for k, v := range c.values {
		values[k] = v
	}
	values[key] = value
	return Configs{values: values}
}
