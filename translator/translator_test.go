package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMappedName(t *testing.T) {
	r := &Result{Names: map[string]string{
		"u_time":  "_uu_time",
		"u_empty": "",
	}}
	assert.Equal(t, "_uu_time", r.MappedName("u_time"))
	assert.Equal(t, "u_empty", r.MappedName("u_empty"))
	assert.Equal(t, "u_mouse", r.MappedName("u_mouse"))
}
