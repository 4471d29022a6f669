package opendap

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Handle is an opened subset. It is not safe for concurrent use.
type Handle struct {
	address string
	group   api.Group
	path    string
	closed  bool
}

// Address returns the address the handle was opened from.
func (h *Handle) Address() string {
	return h.address
}

// Scalar returns the value of variable name at index, with the CF
// scale_factor and add_offset attributes applied.
func (h *Handle) Scalar(name string, index ...int) (float64, error) {
	if h.closed {
		return 0, fmt.Errorf("opendap: read %q from closed handle", name)
	}
	vr, err := h.group.GetVariable(name)
	if err != nil {
		return 0, fmt.Errorf("opendap: variable %q: %w", name, err)
	}

	raw, err := element(vr.Values, index)
	if err != nil {
		return 0, fmt.Errorf("opendap: variable %q: %w", name, err)
	}
	v, ok := toFloat(raw)
	if !ok {
		return 0, fmt.Errorf("opendap: variable %q has non-numeric kind %s", name, raw.Kind())
	}

	if fill, has := attrFloat(vr.Attributes, "_FillValue"); has {
		if v == fill || (math.IsNaN(v) && math.IsNaN(fill)) {
			return 0, fmt.Errorf("%w: %s%v", ErrFillValue, name, index)
		}
	}
	if scale, has := attrFloat(vr.Attributes, "scale_factor"); has {
		v *= scale
	}
	if offset, has := attrFloat(vr.Attributes, "add_offset"); has {
		v += offset
	}
	return v, nil
}

// Close releases the subset. Calling Close more than once is a no-op.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.group.Close()
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("opendap: remove local copy: %w", err)
	}
	return nil
}

// element walks the nested slices returned by the netCDF reader.
func element(values any, index []int) (reflect.Value, error) {
	v := reflect.ValueOf(values)
	for depth, i := range index {
		if v.Kind() != reflect.Slice {
			return reflect.Value{}, fmt.Errorf("index %v has more dimensions than the variable", index)
		}
		if i < 0 || i >= v.Len() {
			return reflect.Value{}, fmt.Errorf("index %d out of range [0,%d) in dimension %d", i, v.Len(), depth)
		}
		v = v.Index(i)
	}
	if v.Kind() == reflect.Slice {
		return reflect.Value{}, fmt.Errorf("index %v has fewer dimensions than the variable", index)
	}
	return v, nil
}

func toFloat(v reflect.Value) (float64, bool) {
	switch {
	case !v.IsValid():
		return 0, false
	case v.CanFloat():
		return v.Float(), true
	case v.CanInt():
		return float64(v.Int()), true
	case v.CanUint():
		return float64(v.Uint()), true
	}
	return 0, false
}

// attrFloat reads a numeric attribute stored either as a scalar or as a
// one-element slice.
func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	val, has := attrs.Get(key)
	if !has {
		return 0, false
	}
	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Slice {
		if v.Len() == 0 {
			return 0, false
		}
		v = v.Index(0)
	}
	return toFloat(v)
}
