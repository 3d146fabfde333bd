package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// ErrBodyTooLarge se devuelve cuando el body supera el límite.
var ErrBodyTooLarge = errors.New("request body too large")

// Params son los parámetros de un request (form, query o JSON) aplanados a
// strings. Los arrays JSON de números se conservan como "a,b,c" para que el
// descriptor biométrico pueda venir en cualquiera de los dos formatos.
type Params map[string]string

// Get devuelve el valor recortado.
func (p Params) Get(k string) string { return strings.TrimSpace(p[k]) }

// Has indica si la clave vino en el request (aunque esté vacía).
func (p Params) Has(k string) bool {
	_, ok := p[k]
	return ok
}

// ReadParams lee los parámetros del body según Content-Type (JSON o
// x-www-form-urlencoded). La query string se usa como fallback para claves
// ausentes en el body. maxBytes limita el body.
func ReadParams(w http.ResponseWriter, r *http.Request, maxBytes int64) (Params, error) {
	out := Params{}
	if r.Body != nil && r.Method != http.MethodGet {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		switch ct {
		case "application/json":
			if err := readJSONParams(r.Body, out); err != nil {
				return nil, err
			}
		default:
			if err := r.ParseForm(); err != nil {
				var mbe *http.MaxBytesError
				if errors.As(err, &mbe) {
					return nil, ErrBodyTooLarge
				}
				return nil, fmt.Errorf("invalid form body: %w", err)
			}
			for k, v := range r.PostForm {
				if len(v) > 0 {
					out[k] = v[0]
				}
			}
		}
	}
	for k, v := range r.URL.Query() {
		if _, ok := out[k]; !ok && len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}

func readJSONParams(body io.Reader, out Params) error {
	var raw map[string]any
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return ErrBodyTooLarge
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case string:
			out[k] = t
		case json.Number:
			out[k] = t.String()
		case bool:
			out[k] = strconv.FormatBool(t)
		case []any:
			parts := make([]string, 0, len(t))
			for _, e := range t {
				switch n := e.(type) {
				case json.Number:
					parts = append(parts, n.String())
				case string:
					parts = append(parts, n)
				default:
					return fmt.Errorf("invalid json body: unsupported element in %q", k)
				}
			}
			out[k] = strings.Join(parts, ",")
		default:
			return fmt.Errorf("invalid json body: unsupported value for %q", k)
		}
	}
	return nil
}
