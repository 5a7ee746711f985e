package relations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_DefaultDirectedPair(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "mentioned_by", r.Inverse("mentions"))
	assert.Equal(t, "mentions", r.Inverse("mentioned_by"))
}

func TestRegistry_Symmetric(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "see_also", r.Inverse("see_also"))
}

func TestRegistry_UnknownFallsBackToSentinel(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, UnknownRelation, r.Inverse("some_plugin_relation_never_registered"))
}

func TestRegistry_PluginRegisterWithoutInverseFallsBackToSentinel(t *testing.T) {
	r := NewRegistry()
	r.Register("authored_by", "")
	assert.Equal(t, UnknownRelation, r.Inverse("authored_by"))
}

func TestRegistry_PluginRegisterDirectedPair(t *testing.T) {
	r := NewRegistry()
	r.Register("parent_of", "child_of")
	r.Freeze()
	assert.Equal(t, "child_of", r.Inverse("parent_of"))
	assert.Equal(t, "parent_of", r.Inverse("child_of"))
}

func TestRegistry_RegisterAfterFreezePanics(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	assert.Panics(t, func() {
		r.Register("x", "y")
	})
}
