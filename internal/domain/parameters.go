package domain

// Parameters are the tunable knobs of a single training job. The struct has
// value semantics on purpose: assigning it into a JobRecord takes a full copy,
// so later edits to a chat's defaults never leak into an in-flight job.
type Parameters struct {
	NumIter       int     `json:"num_iter"`
	ImgHeight     int     `json:"img_height"`
	ContentWeight float64 `json:"content_weight"`
	StyleWeight   float64 `json:"style_weight"`
	StyleScale    float64 `json:"style_scale"`
	StyleCount    int     `json:"style_count"`
	PreserveColor bool    `json:"preserve_color"`
}

// DefaultParameters returns the initial parameter set for a new chat.
func DefaultParameters() Parameters {
	return Parameters{
		NumIter:       5,
		ImgHeight:     400,
		ContentWeight: 0.025,
		StyleWeight:   1.0,
		StyleScale:    1.0,
		StyleCount:    1,
		PreserveColor: false,
	}
}
