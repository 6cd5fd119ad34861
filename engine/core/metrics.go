package core

import "sync"

const AVG_COUNT uint8 = 30

type MetricsState struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
	// RenderCalls is the number of draw calls issued by the last frame.
	RenderCalls int
	// TotalRenderCalls accumulates draw calls since MetricsInitialize.
	TotalRenderCalls int
	// MaxRenderCalls is the highest per-frame draw call count seen.
	MaxRenderCalls int
}

var metricsMu sync.Mutex
var metricsState *MetricsState = nil

// MetricsInitialize resets the metrics state.
func MetricsInitialize() error {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	metricsState = &MetricsState{}
	return nil
}

// MetricsUpdate records one frame: its elapsed time in seconds and the
// number of draw calls it issued.
func MetricsUpdate(frameElapsedTime float64, renderCalls int) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if metricsState == nil {
		metricsState = &MetricsState{}
	}

	// Calculate frame ms average
	frameMS := frameElapsedTime * 1000.0
	metricsState.MStimes[metricsState.FrameAVGCounter] = frameMS
	if metricsState.FrameAVGCounter == AVG_COUNT-1 {
		sum := 0.0
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += metricsState.MStimes[i]
		}
		metricsState.MSavg = sum / float64(AVG_COUNT)
	}
	metricsState.FrameAVGCounter++
	metricsState.FrameAVGCounter %= AVG_COUNT

	// Calculate Frames per second.
	metricsState.AccumulatedFrameMS += frameMS
	if metricsState.AccumulatedFrameMS > 1000 {
		metricsState.FPS = float64(metricsState.Frames)
		metricsState.AccumulatedFrameMS -= 1000
		metricsState.Frames = 0
	}

	metricsState.RenderCalls = renderCalls
	metricsState.TotalRenderCalls += renderCalls
	if renderCalls > metricsState.MaxRenderCalls {
		metricsState.MaxRenderCalls = renderCalls
	}

	// Count all Frames.
	metricsState.Frames++
}

func MetricsFPS() float64 {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if metricsState == nil {
		return 0
	}
	return metricsState.FPS
}

func MetricsFrameTime() float64 {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if metricsState == nil {
		return 0
	}
	return metricsState.MSavg
}

// MetricsSnapshot returns a copy of the current metrics.
func MetricsSnapshot() MetricsState {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if metricsState == nil {
		return MetricsState{}
	}
	return *metricsState
}
