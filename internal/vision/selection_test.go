package vision

import "testing"

func TestSelectImage(t *testing.T) {
	tests := []struct {
		name     string
		newImage string
		cached   string
		visual   bool
		want     Selection
	}{
		{"new image wins when visual", "new", "old", true, Selection{Image: "new", Origin: OriginNew}},
		{"new image wins when not visual", "new", "old", false, Selection{Image: "new", Origin: OriginNew}},
		{"new image without cache", "new", "", false, Selection{Image: "new", Origin: OriginNew}},
		{"cache reused when visual", "", "old", true, Selection{Image: "old", Origin: OriginCache}},
		{"cache ignored when not visual", "", "old", false, Selection{Origin: OriginNone}},
		{"visual without cache degrades to text", "", "", true, Selection{Origin: OriginNone}},
		{"nothing at all", "", "", false, Selection{Origin: OriginNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for n := 0; n < 3; n++ {
				got := SelectImage(tt.newImage, tt.cached, tt.visual)
				if got != tt.want {
					t.Fatalf("SelectImage = %+v, want %+v", got, tt.want)
				}
			}
		})
	}
}

func TestSelection_Fresh(t *testing.T) {
	if !(Selection{Origin: OriginNew}).Fresh() {
		t.Error("new image should be fresh")
	}
	if (Selection{Origin: OriginCache}).Fresh() {
		t.Error("cached image should not be fresh")
	}
}
