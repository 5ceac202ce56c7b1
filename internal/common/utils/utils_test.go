package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, -1.24, Round2(-1.235))
	assert.Equal(t, 0.0, Round2(0))
}

func TestMulRound2(t *testing.T) {
	// 浮点直接相乘会产生 0.285xxx 的尾差
	assert.Equal(t, 0.29, MulRound2(100, 0.00285))
	assert.Equal(t, 720.0, MulRound2(100, 7.2))
}

func TestSumRound2(t *testing.T) {
	assert.Equal(t, 0.3, SumRound2(0.1, 0.2))
	assert.Equal(t, 70.0, SumRound2(100, -20, -10))
}

func TestDivRound(t *testing.T) {
	assert.Equal(t, 33.33, DivRound(100, 3, 2))
	assert.Equal(t, 0.138889, DivRound(1, 7.2, 6))
}

func TestGenerateBatchID(t *testing.T) {
	id := GenerateBatchID()
	assert.True(t, strings.HasPrefix(id, "B"+time.Now().Format("20060102")))
	assert.Len(t, id, 17)

	// 不应重复
	assert.NotEqual(t, id, GenerateBatchID())
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.True(t, Contains([]int64{1, 2}, int64(2)))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3}, Unique([]int64{1, 2, 2, 3, 1}))
	assert.Empty(t, Unique([]int64{}))
}

func TestPaginationNormalize(t *testing.T) {
	p := &Pagination{Page: 0, PageSize: 0}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, 0, p.GetOffset())

	p = &Pagination{Page: 3, PageSize: 10}
	p.Normalize()
	assert.Equal(t, 20, p.GetOffset())
	assert.Equal(t, 10, p.GetLimit())
}
