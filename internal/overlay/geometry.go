package overlay

import (
	"image"

	"github.com/sirupsen/logrus"
)

// rectIoU calculates Intersection over Union between two rectangles.
func rectIoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}

	intersection := area(inter)
	union := area(a) + area(b) - intersection
	if union <= 0 {
		return 0
	}

	return intersection / union
}

func area(r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}
	return float64(r.Dx()) * float64(r.Dy())
}

// logOverlaps reports overlapping face rectangles. They are all drawn anyway,
// later faces on top.
func (p *Processor) logOverlaps(rects []image.Rectangle) {
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if iou := rectIoU(rects[i], rects[j]); iou > 0 {
				p.logger.WithFields(logrus.Fields{
					"first":  i,
					"second": j,
					"iou":    iou,
				}).Debug("face rectangles overlap")
			}
		}
	}
}
