package backend

import (
	"errors"
	"testing"
)

// fakeBackend only needs to answer DeviceType for registry tests.
type fakeBackend struct {
	Backend
	dt DeviceType
}

func (f *fakeBackend) DeviceType() DeviceType { return f.dt }
func (f *fakeBackend) Name() string           { return "fake" }

func withRegistry(t *testing.T, bs ...Backend) {
	t.Helper()
	mu.Lock()
	saved := registry
	registry = make(map[DeviceType]Backend)
	mu.Unlock()
	for _, b := range bs {
		Register(b)
	}
	t.Cleanup(func() {
		mu.Lock()
		registry = saved
		mu.Unlock()
	})
}

func TestParseDevice(t *testing.T) {
	cases := []struct {
		in   string
		want Device
	}{
		{"cpu", CPU0},
		{"CPU:0", CPU0},
		{"cuda:1", Device{Type: CUDA, Index: 1}},
		{" metal ", Device{Type: Metal}},
	}
	for _, c := range cases {
		got, err := ParseDevice(c.in)
		if err != nil || got != c.want {
			t.Errorf("ParseDevice(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
	}
	for _, bad := range []string{"", "tpu", "cuda:x", "cuda:-1"} {
		if _, err := ParseDevice(bad); err == nil {
			t.Errorf("ParseDevice(%q) should fail", bad)
		}
	}
}

func TestSelect(t *testing.T) {
	withRegistry(t, &fakeBackend{dt: CPU})
	dev, err := Select("auto")
	if err != nil || dev != CPU0 {
		t.Fatalf("Select(auto) with cpu only = %v, %v", dev, err)
	}
	if _, err := Select("cuda:0"); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("Select(cuda:0) error = %v, want ErrNoBackend", err)
	}

	withRegistry(t, &fakeBackend{dt: CPU}, &fakeBackend{dt: CUDA})
	dev, err = Select("")
	if err != nil || dev.Type != CUDA {
		t.Fatalf("Select(\"\") with cuda registered = %v, %v", dev, err)
	}
	dev, err = Select("cpu")
	if err != nil || dev != CPU0 {
		t.Fatalf("Select(cpu) = %v, %v", dev, err)
	}
	if dev, err = Select("cpu:1"); err == nil {
		t.Fatalf("Select(cpu:1) = %v, want an error", dev)
	}
	if dev, err = Select("cuda:1"); err != nil || dev != (Device{Type: CUDA, Index: 1}) {
		t.Fatalf("Select(cuda:1) = %v, %v", dev, err)
	}
}

func TestDescribeUnavailable(t *testing.T) {
	withRegistry(t)
	if got := Describe(Device{Type: Vulkan}); got != "vulkan:0 (unavailable)" {
		t.Fatalf("Describe = %q", got)
	}
}
