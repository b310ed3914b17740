package encoding

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalTrimsTrailingNewline(t *testing.T) {
	data, err := MarshalJSON(map[string]float64{"prediction_score": 0.82})
	require.NoError(t, err)

	assert.True(t, json.Valid(data))
	assert.NotEqual(t, byte('\n'), data[len(data)-1])
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	type auditRow struct {
		ModelVersion string             `json:"model_version"`
		Score        float64            `json:"prediction_score"`
		Features     map[string]float64 `json:"features"`
	}

	in := auditRow{
		ModelVersion: "20240101_120000",
		Score:        0.73,
		Features:     map[string]float64{"monthly_income": 0.25, "age": 0.32},
	}

	data, err := MarshalJSON(in)
	require.NoError(t, err)

	var out auditRow
	require.NoError(t, UnmarshalJSON(data, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var out map[string]interface{}
	err := UnmarshalJSON([]byte("{nope"), &out)
	assert.Error(t, err)
}

func TestEncoderPoolSurvivesExhaustion(t *testing.T) {
	pool := NewEncoderPool(2)

	a := pool.GetEncoder()
	b := pool.GetEncoder()
	c := pool.GetEncoder() // exhausted, freshly allocated
	require.NotNil(t, c)

	pool.ReturnEncoder(a)
	pool.ReturnEncoder(b)
	pool.ReturnEncoder(c) // pool full, discarded

	data, err := pool.Marshal(map[string]int{"z_credits": 150})
	require.NoError(t, err)
	assert.JSONEq(t, `{"z_credits":150}`, string(data))
}

func TestOptimizedEncoderStats(t *testing.T) {
	enc := NewOptimizedJSONEncoder()
	stats := enc.GetStats()

	assert.Equal(t, 20, stats["encoder_pool_size"])
	assert.Equal(t, 20, stats["decoder_pool_size"])
}

func TestConcurrentMarshal(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			data, err := MarshalJSON(map[string]int{"worker": n})
			if err != nil {
				errs <- err
				return
			}
			var out map[string]int
			if err := UnmarshalJSON(data, &out); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent marshal failed: %v", err)
	}
}
