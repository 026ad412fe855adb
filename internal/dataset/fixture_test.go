package dataset

import (
	"testing"

	"github.com/RussTedrake/lerobot/internal/dataset/datasettest"
)

type npzEntry = datasettest.Entry

func npyBytes(t *testing.T, descr string, shape []int, data any) []byte {
	return datasettest.NPYBytes(t, descr, shape, false, data)
}

func npyRaw(t *testing.T, descr string, shape []int, fortran bool, data any) []byte {
	return datasettest.NPYBytes(t, descr, shape, fortran, data)
}

func writeNPZ(t *testing.T, path string, entries ...npzEntry) {
	datasettest.WriteNPZ(t, path, entries...)
}

func rampFloats(n int) []float64 { return datasettest.Ramp(n) }

func rampBytes(n int) []uint8 { return datasettest.RampBytes(n) }
