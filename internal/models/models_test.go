package models

import "testing"

func TestTrack(t *testing.T) {
	t.Run("PrimaryArtist", func(t *testing.T) {
		tests := []struct {
			name    string
			artists []string
			want    string
		}{
			{name: "no artists", artists: nil, want: ""},
			{name: "single artist", artists: []string{"X"}, want: "X"},
			{name: "first of many", artists: []string{"A", "B"}, want: "A"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := (Track{Artists: tt.artists}).PrimaryArtist(); got != tt.want {
					t.Errorf("expected %q, got %q", tt.want, got)
				}
			})
		}
	})

	t.Run("ArtistDisplay joins with comma", func(t *testing.T) {
		got := Track{Artists: []string{"A", "B", "C"}}.ArtistDisplay()
		if got != "A, B, C" {
			t.Errorf("expected 'A, B, C', got %q", got)
		}
	})
}

func TestTags(t *testing.T) {
	t.Run("WithDefaults fills empty fields", func(t *testing.T) {
		got := Tags{Title: "  ", Artist: ""}.WithDefaults()
		if got.Title != UnknownTitle || got.Artist != UnknownArtist || got.Album != UnknownAlbum || got.Year != UnknownYear {
			t.Errorf("expected placeholders, got %+v", got)
		}
	})

	t.Run("WithDefaults keeps populated fields", func(t *testing.T) {
		in := Tags{Title: "Song", Artist: "X", Album: "LP", Year: "1999"}
		if got := in.WithDefaults(); got.Title != "Song" || got.Artist != "X" || got.Album != "LP" || got.Year != "1999" {
			t.Errorf("expected fields unchanged, got %+v", got)
		}
	})

	t.Run("TagsFor joins artists", func(t *testing.T) {
		tags := TagsFor(Track{Title: "Song", Artists: []string{"A", "B"}, Album: "LP", Year: "2020"}, []byte{1})
		if tags.Artist != "A, B" {
			t.Errorf("expected 'A, B', got %q", tags.Artist)
		}
		if len(tags.Cover) != 1 {
			t.Errorf("expected cover to be carried over")
		}
	})
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2021-04-09", "2021"},
		{"2021-04", "2021"},
		{"1999", "1999"},
		{"99", ""},
		{"", ""},
		{"abcd-01-01", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseYear(tt.in); got != tt.want {
				t.Errorf("ParseYear(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFailureRecord(t *testing.T) {
	if got := (FailureRecord{Artist: "X", Title: "Song"}).String(); got != "X - Song" {
		t.Errorf("expected 'X - Song', got %q", got)
	}
}

func TestCollectionKind(t *testing.T) {
	if KindPlaylist.String() != "playlist" || KindTrack.String() != "track" {
		t.Errorf("unexpected kind names: %s, %s", KindPlaylist, KindTrack)
	}
}
