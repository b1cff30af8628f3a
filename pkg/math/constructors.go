package math

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Constructor errors.
var (
	ErrUnknownConstructor = errors.New("unknown matrix constructor")
	ErrConstructorArity   = errors.New("wrong number of constructor arguments")
)

// Constructor builds a matrix from a fixed number of arguments.
type Constructor struct {
	Arity int
	Usage string
	Build func(args []float64) Mat4
}

// Constructors is the table of named matrix constructors.
// Angles are in radians.
var Constructors = map[string]Constructor{
	"identity": {
		Arity: 0,
		Usage: "identity",
		Build: func([]float64) Mat4 { return Identity() },
	},
	"translate": {
		Arity: 3,
		Usage: "translate:x,y,z",
		Build: func(a []float64) Mat4 { return Translate(a[0], a[1], a[2]) },
	},
	"scale": {
		Arity: 3,
		Usage: "scale:x,y,z",
		Build: func(a []float64) Mat4 { return Scale(a[0], a[1], a[2]) },
	},
	"uniform_scale": {
		Arity: 1,
		Usage: "uniform_scale:s",
		Build: func(a []float64) Mat4 { return Scale(a[0], a[0], a[0]) },
	},
	"rotate_x": {
		Arity: 1,
		Usage: "rotate_x:angle",
		Build: func(a []float64) Mat4 { return RotateX(a[0]) },
	},
	"rotate_y": {
		Arity: 1,
		Usage: "rotate_y:angle",
		Build: func(a []float64) Mat4 { return RotateY(a[0]) },
	},
	"rotate_z": {
		Arity: 1,
		Usage: "rotate_z:angle",
		Build: func(a []float64) Mat4 { return RotateZ(a[0]) },
	},
	"rotate_axis": {
		Arity: 4,
		Usage: "rotate_axis:x,y,z,angle",
		Build: func(a []float64) Mat4 { return RotateAxis(Vec3{a[0], a[1], a[2]}, a[3]) },
	},
	"quat": {
		Arity: 4,
		Usage: "quat:x,y,z,w",
		Build: func(a []float64) Mat4 { return Quat{a[0], a[1], a[2], a[3]}.ToMat4() },
	},
}

// Construct builds a matrix with the named constructor.
func Construct(name string, args ...float64) (Mat4, error) {
	c, ok := Constructors[name]
	if !ok {
		return Mat4{}, fmt.Errorf("%w: %q", ErrUnknownConstructor, name)
	}
	if len(args) != c.Arity {
		return Mat4{}, fmt.Errorf("%w: %s takes %d, got %d", ErrConstructorArity, name, c.Arity, len(args))
	}
	return c.Build(args), nil
}

// ParseConstructor parses "name:a,b,c" and builds the matrix.
// Several constructors may be chained with ';' and are multiplied left to right.
func ParseConstructor(spec string) (Mat4, error) {
	result := Identity()
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rawArgs, _ := strings.Cut(part, ":")
		var args []float64
		if rawArgs != "" {
			for _, field := range strings.Split(rawArgs, ",") {
				v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
				if err != nil {
					return Mat4{}, fmt.Errorf("constructor %s: %w", name, err)
				}
				args = append(args, v)
			}
		}
		m, err := Construct(strings.TrimSpace(name), args...)
		if err != nil {
			return Mat4{}, err
		}
		result = result.Mul(m)
	}
	return result, nil
}

// ConstructorNames returns the constructor names in sorted order.
func ConstructorNames() []string {
	names := make([]string, 0, len(Constructors))
	for name := range Constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
