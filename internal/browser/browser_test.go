package browser

import (
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.Headless {
		t.Error("Expected headless to be true by default")
	}

	if opts.DefaultTimeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %v", opts.DefaultTimeout)
	}

	if opts.ViewportWidth != 1366 || opts.ViewportHeight != 768 {
		t.Errorf("Expected viewport to be 1366x768, got %dx%d", opts.ViewportWidth, opts.ViewportHeight)
	}

	if !opts.BlockResources {
		t.Error("Expected resource blocking to be enabled by default")
	}
}

func TestBlockedResourceTypes(t *testing.T) {
	for _, rt := range []string{"image", "stylesheet", "font"} {
		if !blockedResourceTypes[rt] {
			t.Errorf("Expected resource type %q to be blocked", rt)
		}
	}

	for _, rt := range []string{"document", "script", "xhr", "fetch"} {
		if blockedResourceTypes[rt] {
			t.Errorf("Expected resource type %q not to be blocked", rt)
		}
	}
}
