// Package tflite runs classifier models exported to TensorFlow Lite.
package tflite

import (
	"fmt"

	"github.com/mattn/go-tflite"
	"github.com/phambaophuc/sign-recognition/internal/services/classifier"
)

// Model wraps one TensorFlow Lite interpreter. It is not safe for concurrent
// use.
type Model struct {
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	inputLen    int
}

// Load opens the model at path and checks that its first input holds
// inputLen float32 values.
func Load(path string, inputLen, threads int) (*Model, error) {
	model := tflite.NewModelFromFile(path)
	if model == nil {
		return nil, fmt.Errorf("cannot load model %s", path)
	}

	options := tflite.NewInterpreterOptions()
	if threads > 0 {
		options.SetNumThread(threads)
	}

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("cannot create interpreter for %s", path)
	}

	m := &Model{
		model:       model,
		options:     options,
		interpreter: interpreter,
		inputLen:    inputLen,
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		m.Close()
		return nil, fmt.Errorf("allocate tensors: status %v", status)
	}

	input := interpreter.GetInputTensor(0)
	if input.Type() != tflite.Float32 {
		m.Close()
		return nil, fmt.Errorf("model input is %v, want float32", input.Type())
	}
	if n := len(input.Float32s()); n != inputLen {
		m.Close()
		return nil, fmt.Errorf("model input holds %d values, want %d", n, inputLen)
	}

	return m, nil
}

// LoadPool loads n independent interpreters for the same model.
func LoadPool(path string, inputLen, threads, n int) ([]classifier.Model, error) {
	n = max(1, n)
	models := make([]classifier.Model, 0, n)
	for i := 0; i < n; i++ {
		m, err := Load(path, inputLen, threads)
		if err != nil {
			for _, loaded := range models {
				loaded.Close()
			}
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Infer copies input into the model, runs it and returns a copy of the first
// output tensor.
func (m *Model) Infer(input []float32) ([]float32, error) {
	if len(input) != m.inputLen {
		return nil, fmt.Errorf("input has %d values, want %d", len(input), m.inputLen)
	}

	copy(m.interpreter.GetInputTensor(0).Float32s(), input)

	if status := m.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("invoke: status %v", status)
	}

	output := m.interpreter.GetOutputTensor(0).Float32s()
	return append([]float32(nil), output...), nil
}

func (m *Model) Close() error {
	if m.interpreter != nil {
		m.interpreter.Delete()
		m.interpreter = nil
	}
	if m.options != nil {
		m.options.Delete()
		m.options = nil
	}
	if m.model != nil {
		m.model.Delete()
		m.model = nil
	}
	return nil
}
