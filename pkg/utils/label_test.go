package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLabel(t *testing.T) {
	assert.Equal(t, Label{Value: "b", Source: "rank"}, MergeLabel(Label{}, Label{Value: "b", Source: "rank"}))
	assert.Equal(t, Label{Value: "a", Source: "recall"}, MergeLabel(Label{Value: "a", Source: "recall"}, Label{}))
	assert.Equal(t, Label{Value: "a|b", Source: "recall,rank"},
		MergeLabel(Label{Value: "a", Source: "recall"}, Label{Value: "b", Source: "rank"}))
	assert.Equal(t, Label{Value: "a|b", Source: "rank"},
		MergeLabel(Label{Value: "a"}, Label{Value: "b", Source: "rank"}))
}
