package manifest

import (
	"regexp"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wasmforge/forge/errors"
)

// Signature is the declared WIT shape of one exported function.
type Signature struct {
	Params  []wit.Type
	Results []wit.Type
}

// Pattern: [export] name: func(params) -> result
var funcPattern = regexp.MustCompile(`^(?:export\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?;?$`)

// Signatures parses the declared exports into named signatures. Each
// exports entry holds one declaration, for example
//
//	tac: func(path: string) -> string
//
// An empty exports list yields an empty map; the caller falls back to
// the raw wasm export table.
func (m *Manifest) Signatures() (map[string]Signature, error) {
	sigs := make(map[string]Signature, len(m.Exports))

	for _, entry := range m.Exports {
		match := funcPattern.FindStringSubmatch(strings.TrimSpace(entry))
		if match == nil {
			return nil, errors.New(errors.PhaseManifest, errors.KindInvalidData).
				Path("exports").
				Value(entry).
				Detail("not a function signature").
				Build()
		}

		name := match[1]
		if _, dup := sigs[name]; dup {
			return nil, errors.New(errors.PhaseManifest, errors.KindInvalidData).
				Path("exports").
				Value(name).
				Detail("duplicate export").
				Build()
		}

		sig, err := parseSignature(strings.TrimSpace(match[2]), strings.TrimSpace(match[3]))
		if err != nil {
			return nil, err
		}
		sigs[name] = sig
	}

	return sigs, nil
}

func parseSignature(paramsStr, resultStr string) (Signature, error) {
	var sig Signature

	if paramsStr != "" {
		for _, p := range splitParams(paramsStr) {
			typStr := p
			if idx := strings.LastIndex(p, ":"); idx != -1 {
				typStr = strings.TrimSpace(p[idx+1:])
			}
			t, err := parseType(typStr)
			if err != nil {
				return Signature{}, err
			}
			sig.Params = append(sig.Params, t)
		}
	}

	if resultStr != "" && resultStr != "()" {
		if strings.HasPrefix(resultStr, "(") && strings.HasSuffix(resultStr, ")") {
			inner := strings.TrimPrefix(strings.TrimSuffix(resultStr, ")"), "(")
			for _, part := range splitParams(inner) {
				t, err := parseType(part)
				if err != nil {
					return Signature{}, err
				}
				sig.Results = append(sig.Results, t)
			}
		} else {
			t, err := parseType(resultStr)
			if err != nil {
				return Signature{}, err
			}
			sig.Results = []wit.Type{t}
		}
	}

	return sig, nil
}

// splitParams splits a parameter list on top-level commas, leaving
// nested parens intact.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(':
			depth++
			current.WriteRune(ch)
		case ')':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}

func parseType(s string) (wit.Type, error) {
	t, err := wit.ParseType(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.New(errors.PhaseManifest, errors.KindInvalidData).
			Path("exports").
			Value(s).
			Cause(err).
			Detail("parse type").
			Build()
	}
	return t, nil
}

// TypeName renders a wit type the way signatures print it.
func TypeName(t wit.Type) string {
	return typeName(t)
}

// String renders the signature in WIT form, e.g. "func(string) -> u64".
func (s Signature) String() string {
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(typeName(p))
	}
	b.WriteByte(')')

	switch len(s.Results) {
	case 0:
	case 1:
		b.WriteString(" -> ")
		b.WriteString(typeName(s.Results[0]))
	default:
		b.WriteString(" -> (")
		for i, r := range s.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(typeName(r))
		}
		b.WriteByte(')')
	}
	return b.String()
}

func typeName(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		switch k := v.Kind.(type) {
		case *wit.List:
			return "list<" + typeName(k.Type) + ">"
		case *wit.Option:
			return "option<" + typeName(k.Type) + ">"
		case *wit.Tuple:
			parts := make([]string, len(k.Types))
			for i, tt := range k.Types {
				parts[i] = typeName(tt)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		}
		return "type"
	default:
		return "type"
	}
}
