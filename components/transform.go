package components

import "github.com/yohamta/donburi"

type TransformData struct {
	X        float64
	Y        float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64
}

var Transform = donburi.NewComponentType[TransformData]()
