package detector

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/pose"
)

// BlazePose landmark model layout.
const (
	blazeInputSize   = 256
	blazeInputName   = "input_1"
	blazeLandmarks   = "Identity"
	blazePresence    = "Identity_1"
	blazeValuesPerLm = 5 // x, y, z, visibility, presence
	blazeNumOutputLm = 39
)

var (
	ortInitialized bool
	ortMu          sync.Mutex
)

// initRuntime sets up the onnxruntime environment once per process.
func initRuntime(libPath string) error {
	ortMu.Lock()
	defer ortMu.Unlock()

	if ortInitialized {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	ortInitialized = true
	return nil
}

// ONNXDetector runs the BlazePose landmark model in-process. The frame is
// letterboxed into the square model input, so it works best when the
// performer fills most of the frame.
type ONNXDetector struct {
	config  Config
	session *ort.DynamicAdvancedSession
	input   *ort.Tensor[float32]
	coords  *ort.Tensor[float32]
	score   *ort.Tensor[float32]
	mu      sync.Mutex
}

// NewONNXDetector loads the model at cfg.ModelPath.
func NewONNXDetector(cfg Config) (*ONNXDetector, error) {
	if err := initRuntime(cfg.SharedLibraryPath); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{blazeInputName},
		[]string{blazeLandmarks, blazePresence},
		options)
	if err != nil {
		return nil, fmt.Errorf("load pose model %s: %w", cfg.ModelPath, err)
	}

	d := &ONNXDetector{config: cfg, session: session}

	d.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, blazeInputSize, blazeInputSize, 3))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	d.coords, err = ort.NewEmptyTensor[float32](ort.NewShape(1, blazeNumOutputLm*blazeValuesPerLm))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("create landmark tensor: %w", err)
	}
	d.score, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("create presence tensor: %w", err)
	}

	return d, nil
}

// Detect runs the model on one BGR frame.
func (d *ONNXDetector) Detect(frame *gocv.Mat) (pose.Pose, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return nil, nil
	}

	lb, err := letterbox(*frame, blazeInputSize)
	if err != nil {
		return nil, err
	}
	defer lb.mat.Close()

	data, err := lb.mat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read input pixels: %w", err)
	}
	copy(d.input.GetData(), data)

	if err := d.session.Run([]ort.Value{d.input}, []ort.Value{d.coords, d.score}); err != nil {
		return nil, fmt.Errorf("pose inference: %w", err)
	}

	if float64(d.score.GetData()[0]) < d.config.MinConfidence {
		return nil, nil
	}

	return lb.decode(d.coords.GetData()), nil
}

// Close releases the tensors and the session.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, t := range []*ort.Tensor[float32]{d.input, d.coords, d.score} {
		if t != nil {
			t.Destroy()
		}
	}
	d.input, d.coords, d.score = nil, nil, nil

	if d.session == nil {
		return nil
	}
	err := d.session.Destroy()
	d.session = nil
	return err
}

// letterboxed is a frame scaled into a square with padding. Offsets and
// scale map model pixels back to the source frame.
type letterboxed struct {
	mat        gocv.Mat
	size       int
	scale      float64
	padX, padY int
	srcW, srcH int
}

// letterbox resizes src to fit a size x size square keeping the aspect
// ratio, pads the rest with black and converts to RGB float32 in [0, 1].
func letterbox(src gocv.Mat, size int) (letterboxed, error) {
	w, h := src.Cols(), src.Rows()
	scale := float64(size) / float64(max(w, h))
	rw, rh := int(math.Round(float64(w)*scale)), int(math.Round(float64(h)*scale))
	padX, padY := (size-rw)/2, (size-rh)/2

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Pt(rw, rh), 0, 0, gocv.InterpolationLinear)

	padded := gocv.NewMat()
	defer padded.Close()
	gocv.CopyMakeBorder(resized, &padded, padY, size-rh-padY, padX, size-rw-padX, gocv.BorderConstant, color.RGBA{})

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(padded, &rgb, gocv.ColorBGRToRGB)

	out := gocv.NewMat()
	rgb.ConvertTo(&out, gocv.MatTypeCV32FC3)
	out.DivideFloat(255)
	if out.Empty() {
		out.Close()
		return letterboxed{}, fmt.Errorf("convert input: empty result")
	}

	return letterboxed{
		mat:   out,
		size:  size,
		scale: scale,
		padX:  padX,
		padY:  padY,
		srcW:  w,
		srcH:  h,
	}, nil
}

// decode maps raw model output to a pose normalized to the source frame.
// Only the first 33 of the 39 model points are body landmarks.
func (lb letterboxed) decode(raw []float32) pose.Pose {
	p := make(pose.Pose, pose.NumLandmarks)
	for i := range p {
		v := raw[i*blazeValuesPerLm : (i+1)*blazeValuesPerLm]
		x := (float64(v[0]) - float64(lb.padX)) / lb.scale
		y := (float64(v[1]) - float64(lb.padY)) / lb.scale
		p[i] = pose.Landmark{
			X:          x / float64(lb.srcW),
			Y:          y / float64(lb.srcH),
			Z:          float64(v[2]) / lb.scale / float64(lb.srcW),
			Visibility: sigmoid(float64(v[3])),
		}
	}
	return p
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
