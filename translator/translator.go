// Package translator converts WebGL2 (GLSL ES 3.00) fragment shaders to the
// dialect of the current context and reports how uniform names were mapped.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// Get returns the process-wide translator, creating it on first use.
func Get() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
		if initErr != nil {
			initErr = fmt.Errorf("failed to create shader translator: %w", initErr)
		}
	})
	return translator, initErr
}

// Result is a translated fragment shader.
type Result struct {
	Code string
	// Names maps source uniform names to the names in Code.
	Names map[string]string
}

// MappedName returns the translated name for a source uniform, or the name
// itself when the translator did not report it.
func (r *Result) MappedName(name string) string {
	if mapped, ok := r.Names[name]; ok && mapped != "" {
		return mapped
	}
	return name
}

// Fragment translates a WebGL2 fragment shader to desktop GLSL 4.10, or to
// ESSL when gles is set.
func Fragment(source string, gles bool) (*Result, error) {
	t, err := Get()
	if err != nil {
		return nil, err
	}

	outputFormat := gst.OutputFormatGLSL410
	if gles {
		outputFormat = gst.OutputFormatESSL
	}
	fs, err := t.TranslateShader(source, "fragment", gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, fmt.Errorf("fragment shader translation failed: %w", err)
	}

	res := &Result{Code: fs.Code, Names: make(map[string]string, len(fs.Variables))}
	for name, v := range fs.Variables {
		res.Names[name] = v.MappedName
	}
	return res, nil
}
