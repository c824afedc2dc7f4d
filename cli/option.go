package cli

import (
	"strings"

	ucli "github.com/urfave/cli/v3"

	"github.com/scriptkit/go/errors"
)

// Type identifies the value type of an option.
type Type int

const (
	// TypeString is a single text value. The zero Type, so untyped options
	// default to it.
	TypeString Type = iota

	// TypeBool is a presence flag: false by default, true when given.
	TypeBool

	// TypeInt is a single integer value.
	TypeInt

	// TypeFloat is a single floating-point value.
	TypeFloat

	// TypeStringList collects a repeatable text value into a list.
	TypeStringList
)

// Option describes one command-line option. Names use snake_case; the
// rendered flag replaces underscores with dashes, and single-letter names
// become short flags.
type Option struct {
	Name     string
	Usage    string
	Type     Type
	Default  any
	Required bool
}

// flagName renders an option name in its command-line spelling.
func flagName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// flag converts the descriptor into a urfave/cli flag.
func (o Option) flag() (ucli.Flag, error) {
	if o.Name == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "option has no name")
	}
	name := flagName(o.Name)

	switch o.Type {
	case TypeString:
		f := &ucli.StringFlag{Name: name, Usage: o.Usage, Required: o.Required}
		if o.Default != nil {
			d, ok := o.Default.(string)
			if !ok {
				return nil, errors.Newf(errors.CodeInvalidConfig, "option %s: default %v is not a string", o.Name, o.Default)
			}
			f.Value = d
		}
		return f, nil

	case TypeBool:
		if o.Default != nil || o.Required {
			return nil, errors.Newf(errors.CodeInvalidConfig, "option %s: bool options are optional presence flags", o.Name)
		}
		return &ucli.BoolFlag{Name: name, Usage: o.Usage}, nil

	case TypeInt:
		f := &ucli.IntFlag{Name: name, Usage: o.Usage, Required: o.Required}
		if o.Default != nil {
			d, ok := o.Default.(int)
			if !ok {
				return nil, errors.Newf(errors.CodeInvalidConfig, "option %s: default %v is not an int", o.Name, o.Default)
			}
			f.Value = d
		}
		return f, nil

	case TypeFloat:
		f := &ucli.FloatFlag{Name: name, Usage: o.Usage, Required: o.Required}
		if o.Default != nil {
			d, ok := o.Default.(float64)
			if !ok {
				return nil, errors.Newf(errors.CodeInvalidConfig, "option %s: default %v is not a float64", o.Name, o.Default)
			}
			f.Value = d
		}
		return f, nil

	case TypeStringList:
		f := &ucli.StringSliceFlag{Name: name, Usage: o.Usage, Required: o.Required}
		if o.Default != nil {
			d, ok := o.Default.([]string)
			if !ok {
				return nil, errors.Newf(errors.CodeInvalidConfig, "option %s: default %v is not a string list", o.Name, o.Default)
			}
			f.Value = d
		}
		return f, nil

	default:
		return nil, errors.Newf(errors.CodeInvalidConfig, "option %s: unknown type %d", o.Name, o.Type)
	}
}

// Values gives an action typed access to its parsed options. Lookups use the
// option's declared snake_case name.
type Values struct {
	cmd *ucli.Command
}

// String returns the value of a TypeString option.
func (v *Values) String(name string) string {
	return v.cmd.String(flagName(name))
}

// Bool returns the value of a TypeBool option.
func (v *Values) Bool(name string) bool {
	return v.cmd.Bool(flagName(name))
}

// Int returns the value of a TypeInt option.
func (v *Values) Int(name string) int {
	return int(v.cmd.Int(flagName(name)))
}

// Float returns the value of a TypeFloat option.
func (v *Values) Float(name string) float64 {
	return float64(v.cmd.Float(flagName(name)))
}

// StringList returns the value of a TypeStringList option.
func (v *Values) StringList(name string) []string {
	return v.cmd.StringSlice(flagName(name))
}

// IsSet reports whether the option was given on the command line.
func (v *Values) IsSet(name string) bool {
	return v.cmd.IsSet(flagName(name))
}

// Args returns the positional arguments remaining after option parsing.
func (v *Values) Args() []string {
	return v.cmd.Args().Slice()
}
