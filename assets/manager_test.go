package assets

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/richinsley/goshdr/graphics"
	"github.com/richinsley/goshdr/graphics/graphicstest"
	"github.com/richinsley/goshdr/media"
	"github.com/richinsley/goshdr/uniforms"
)

func TestNewRegistersOnlyUsedBuiltins(t *testing.T) {
	dev := graphicstest.NewDevice("u_time", "u_mouse")
	m := New(dev, 1, nil, Options{})
	defer m.Destroy()

	slots := m.Uniforms()
	require.Len(t, slots, 2)
	assert.Equal(t, uniforms.Float, slots["u_time"].Kind)
	assert.Equal(t, uniforms.Vec2, slots["u_mouse"].Kind)
	_, ok := m.Uniform("u_resolution")
	assert.False(t, ok)
}

func TestNewCustomFloat(t *testing.T) {
	dev := graphicstest.NewDevice("u_my_float")
	m := New(dev, 1, map[string]any{"my_float": 1}, Options{})
	defer m.Destroy()

	slot, ok := m.Uniform("u_my_float")
	require.True(t, ok)
	assert.Equal(t, uniforms.Float, slot.Kind)
	assert.Equal(t, 1.0, slot.Value)

	v, ok := dev.Value("u_my_float")
	require.True(t, ok)
	assert.Equal(t, float32(1), v)
}

func TestNewCamelCase(t *testing.T) {
	dev := graphicstest.NewDevice("uTime", "uMyFloat")
	m := New(dev, 1, map[string]any{"myFloat": 0.5}, Options{Case: uniforms.Camel})
	defer m.Destroy()

	assert.Equal(t, "uMyFloat", m.FormatName("myFloat"))
	_, ok := m.Uniform("uTime")
	assert.True(t, ok)
	slot, ok := m.Uniform("uMyFloat")
	require.True(t, ok)
	assert.Equal(t, 0.5, slot.Value)
}

func TestNewSkipsUniformMissingFromProgram(t *testing.T) {
	logger, logs := observedLogger()
	dev := graphicstest.NewDevice()
	m := New(dev, 1, map[string]any{"unused": 1}, Options{Logger: logger})
	defer m.Destroy()

	assert.Empty(t, m.Uniforms())
	assert.Equal(t, 0, logs.FilterLevelExact(zap.ErrorLevel).Len())
	entries := logs.FilterField(zap.String("uniform", "u_unused")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
}

func TestNewSkipsUninferableValue(t *testing.T) {
	logger, logs := observedLogger()
	dev := graphicstest.NewDevice("u_bad", "u_short")
	m := New(dev, 1, map[string]any{"bad": "nonsense", "short": []float64{1}}, Options{Logger: logger})
	defer m.Destroy()

	assert.Empty(t, m.Uniforms())
	errs := logs.FilterLevelExact(zap.ErrorLevel).All()
	require.Len(t, errs, 2)
	assert.Equal(t, "unknown uniform type: nonsense", errs[0].ContextMap()["error"])
	assert.Equal(t, "invalid vector length: 1", errs[1].ContextMap()["error"])
}

func TestSetValueUnknownName(t *testing.T) {
	logger, logs := observedLogger()
	dev := graphicstest.NewDevice("u_time")
	m := New(dev, 1, nil, Options{Logger: logger})
	defer m.Destroy()

	before := dev.CallCount()
	m.SetValue("nope", 1)

	assert.Equal(t, before, dev.CallCount(), "no device calls expected")
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestSetValueShapeMismatch(t *testing.T) {
	logger, logs := observedLogger()
	dev := graphicstest.NewDevice("u_my_float", "u_dir")
	m := New(dev, 1, map[string]any{"my_float": 2, "dir": []float64{1, 0}}, Options{Logger: logger})
	defer m.Destroy()

	before := dev.CallCount()
	m.SetValue("my_float", "abc")
	m.SetValue("dir", []float64{1, 0, 0})

	assert.Equal(t, before, dev.CallCount(), "no device calls expected")
	warns := logs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(t, warns, 2)
	assert.Equal(t, "number", warns[0].ContextMap()["expected"])
	assert.Equal(t, "u_my_float", warns[0].ContextMap()["uniform"])
	assert.Equal(t, "Vec2", warns[1].ContextMap()["expected"])

	slot, _ := m.Uniform("u_my_float")
	assert.Equal(t, 2.0, slot.Value, "value must be unchanged")
}

func TestSetValueDispatch(t *testing.T) {
	dev := graphicstest.NewDevice("u_count", "u_dir", "u_color", "u_on", "u_off")
	m := New(dev, 1, map[string]any{
		"count": "3",
		"dir":   []float64{1, 2, 3},
		"color": []int{1, 0, 0, 1},
		"on":    true,
		"off":   false,
	}, Options{})
	defer m.Destroy()

	v, _ := dev.Value("u_count")
	assert.Equal(t, int32(3), v)
	v, _ = dev.Value("u_dir")
	assert.Equal(t, []float32{1, 2, 3}, v)
	v, _ = dev.Value("u_color")
	assert.Equal(t, []float32{1, 0, 0, 1}, v)
	v, _ = dev.Value("u_on")
	assert.Equal(t, int32(1), v)
	v, _ = dev.Value("u_off")
	assert.Equal(t, int32(0), v)

	slot, _ := m.Uniform("u_count")
	assert.Equal(t, uniforms.Int, slot.Kind)

	m.SetValue("count", 7.9)
	v, _ = dev.Value("u_count")
	assert.Equal(t, int32(7), v)

	m.SetValue("on", false)
	v, _ = dev.Value("u_on")
	assert.Equal(t, int32(0), v)

	assert.Len(t, dev.CallsTo("Uniform3fv"), 1)
	assert.Len(t, dev.CallsTo("Uniform4fv"), 1)
}

func TestSetValueIntKeepsPrecision(t *testing.T) {
	logger, logs := observedLogger()
	dev := graphicstest.NewDevice("u_seed")
	m := New(dev, 1, map[string]any{"seed": "16777217"}, Options{Logger: logger})
	defer m.Destroy()

	v, _ := dev.Value("u_seed")
	assert.Equal(t, int32(16777217), v)

	m.SetValue("seed", int64(-2147483648))
	v, _ = dev.Value("u_seed")
	assert.Equal(t, int32(-2147483648), v)

	m.SetValue("seed", 3000000000)
	v, _ = dev.Value("u_seed")
	assert.Equal(t, int32(-2147483648), v, "out of range value is not pushed")
	slot, _ := m.Uniform("u_seed")
	assert.Equal(t, int64(-2147483648), slot.Value)

	warns := logs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Equal(t, "u_seed", warns[0].ContextMap()["uniform"])
}

func TestNewRejectsBadVectorLengths(t *testing.T) {
	logger, logs := observedLogger()
	dev := graphicstest.NewDevice("u_one", "u_five")
	m := New(dev, 1, map[string]any{
		"one":  []any{1},
		"five": []float64{1, 2, 3, 4, 5},
	}, Options{Logger: logger})
	defer m.Destroy()

	assert.Empty(t, m.Uniforms())
	errs := logs.FilterLevelExact(zap.ErrorLevel).All()
	require.Len(t, errs, 2)
	assert.Equal(t, "invalid vector length: 5", errs[0].ContextMap()["error"])
	assert.Equal(t, "invalid vector length: 1", errs[1].ContextMap()["error"])
}

func TestPushBuiltins(t *testing.T) {
	dev := graphicstest.NewDevice("u_time", "u_resolution", "u_mouse")
	m := New(dev, 1, nil, Options{})
	defer m.Destroy()

	m.PushTime(1.5)
	m.PushResolution(640, 480)
	m.PushPointer(10, 20)

	v, _ := dev.Value("u_time")
	assert.Equal(t, float32(1.5), v)
	v, _ = dev.Value("u_resolution")
	assert.Equal(t, []float32{640, 480}, v)
	v, _ = dev.Value("u_mouse")
	assert.Equal(t, []float32{10, 20}, v)

	slot, _ := m.Uniform("u_resolution")
	assert.Equal(t, []float32{640, 480}, slot.Value)
}

func TestPushBuiltinsAbsentIsSilent(t *testing.T) {
	logger, logs := observedLogger()
	dev := graphicstest.NewDevice()
	m := New(dev, 1, nil, Options{Logger: logger})
	defer m.Destroy()

	before := dev.CallCount()
	m.PushTime(1)
	m.PushResolution(1, 1)
	m.PushPointer(1, 1)
	assert.Equal(t, before, dev.CallCount())
	assert.Equal(t, 0, logs.Len())
}

func TestPostRunsOnProcessEvents(t *testing.T) {
	m := New(graphicstest.NewDevice(), 1, nil, Options{})

	var wg sync.WaitGroup
	ran := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Post(func() { ran++ })
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, ran)
	assert.Equal(t, 10, m.ProcessEvents())
	assert.Equal(t, 10, ran)

	m.Destroy()
	m.Post(func() { ran++ })
	assert.Equal(t, 0, m.ProcessEvents())
	assert.Equal(t, 10, ran)
}

func TestSetValueAfterDestroy(t *testing.T) {
	dev := graphicstest.NewDevice("u_my_float")
	m := New(dev, 1, map[string]any{"my_float": 1}, Options{})
	m.Destroy()

	before := dev.CallCount()
	m.SetValue("my_float", 2)
	assert.Equal(t, before, dev.CallCount())
}

func TestNoLoaderReportsError(t *testing.T) {
	var got []*LoadError
	dev := graphicstest.NewDevice("u_tex")
	m := New(dev, 1, map[string]any{"tex": "a.png"}, Options{
		OnError: func(e *LoadError) { got = append(got, e) },
	})
	defer m.Destroy()

	pump(t, m, func() bool { return len(got) == 1 })
	assert.ErrorIs(t, got[0], errNoLoader)
	assert.Equal(t, uniforms.Image, got[0].Kind)
}

func blockingImageLoader(gate <-chan struct{}, img image.Image) *fakeLoader {
	return &fakeLoader{
		image: func(ctx context.Context, src string) (image.Image, error) {
			select {
			case <-gate:
				return img, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
		video: func(context.Context, string) (media.Stream, error) {
			return nil, errors.New("unexpected video")
		},
		camera: func(context.Context) (media.Stream, error) {
			return nil, errors.New("unexpected camera")
		},
	}
}

var _ graphics.Device = (*graphicstest.Device)(nil)
