package failure

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := Geometry("geoproc: clip", errors.New("no overlap"))
	wrapped := eris.Wrap(base, "pipeline: clip stage")

	assert.Equal(t, KindGeometry, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindGeometry))
	assert.False(t, Is(wrapped, KindIO))
}

func TestKindOf_Plain(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindValidation))
}

func TestError_Message(t *testing.T) {
	err := Validationf("geoproc: overlay", "weights %d != layers %d", 2, 3)
	assert.Contains(t, err.Error(), "geoproc: overlay")
	assert.Contains(t, err.Error(), "weights 2 != layers 3")
}

func TestError_NilCause(t *testing.T) {
	err := Publish("geoserver: upload", nil)
	assert.Equal(t, KindPublish, err.Kind)
	assert.Contains(t, err.Error(), "publish error")
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "geometry", KindGeometry.String())
	assert.Equal(t, "io", KindIO.String())
	assert.Equal(t, "publish", KindPublish.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
