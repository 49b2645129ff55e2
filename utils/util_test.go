package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils"
)

func TestFind(t *testing.T) {
	data := []string{"a", "b", "c"}
	dataMap := map[int32]string{1: "a", 2: "b", 3: "c"}

	all, failed := utils.Find(dataMap, data, nil)
	assert.Equal(t, data, all)
	assert.Empty(t, failed)

	ok, failed := utils.Find(dataMap, data, []int32{3, 7, 1, 3})
	assert.Equal(t, []string{"c", "a"}, ok)
	assert.Equal(t, []int32{7}, failed)

	ok, failed = utils.Find(dataMap, data, []int32{8})
	assert.Empty(t, ok)
	assert.Equal(t, []int32{8}, failed)
}
