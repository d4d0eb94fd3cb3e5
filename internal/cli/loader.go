package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/N-Bhageeratha/OLP/internal/catalog"
)

// Error codes reported by LoadDraft.
const (
	ErrCodeNotFound    = "E_NOT_FOUND"
	ErrCodeBadFormat   = "E_BAD_FORMAT"
	ErrCodeParseError  = "E_PARSE"
	ErrCodeSchemaError = "E_SCHEMA"
)

// LoadError represents an error that occurred while reading a course draft.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDraft reads a course draft from a .yaml, .yml, .json or .cue file.
// Every format is decoded through the draft's JSON field names, so a lesson's
// video link is "videoUrl" everywhere. Unknown fields are rejected.
func LoadDraft(path string) (catalog.Draft, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return catalog.Draft{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("draft file not found: %s", path)}
	}
	if err != nil {
		return catalog.Draft{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error reading draft: %v", err)}
	}

	var doc []byte
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml", ".json":
		doc, err = yamlToJSON(data)
	case ".cue":
		doc, err = cueToJSON(path, data)
	default:
		return catalog.Draft{}, &LoadError{Code: ErrCodeBadFormat, Message: fmt.Sprintf("unsupported draft format %q (want .yaml, .json or .cue)", ext)}
	}
	if err != nil {
		return catalog.Draft{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()
	var d catalog.Draft
	if err := dec.Decode(&d); err != nil {
		return catalog.Draft{}, &LoadError{Code: ErrCodeSchemaError, Message: err.Error()}
	}
	return d, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, &LoadError{Code: ErrCodeParseError, Message: err.Error()}
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, &LoadError{Code: ErrCodeSchemaError, Message: "draft must be a mapping"}
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeSchemaError, Message: err.Error()}
	}
	return out, nil
}

func cueToJSON(path string, data []byte) ([]byte, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(ErrCodeParseError, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeSchemaError, err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(ErrCodeSchemaError, err)
	}
	return out, nil
}

// cueLoadError keeps the position of the first CUE error.
func cueLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		le.Pos = errs[0].Position()
		if ps := errs[0].InputPositions(); !le.Pos.IsValid() && len(ps) > 0 {
			le.Pos = ps[0]
		}
	}
	return le
}
