package models

// Landmark is a hand keypoint in normalized image coordinates. X and Y are
// fractions of the image width and height, origin top-left. Z is relative
// depth and is ignored by cropping.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Region is a pixel rectangle, Min inclusive and Max exclusive.
type Region struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}
