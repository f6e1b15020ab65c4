package services

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		id   string
		html string
		text string
		url  string
		want bool
	}{
		{"exact token in text", "12345", "", "Listing 12345 in Austin", "", true},
		{"mls hash prefix", "A1234567", "", "MLS # A1234567", "", true},
		{"mls id prefix", "778899", "", "mls id 778899 - beautiful home", "", true},
		{"mls number prefix", "778899", "", "MLS Number: 778899", "", true},
		{"mls colon prefix", "778899", "<span>MLS:778899</span>", "", "", true},
		{"case insensitive", "a1234567", "", "MLS# A1234567", "", true},
		{"registered mark label", "A1234567", "", "MLS®A1234567", "", true},
		{"label glued to id", "A1234567", "", "MLSA1234567", "", false},
		{"html only", "55555", `<script>var listing = {"mls":"55555"}</script>`, "", "", true},
		{"url substring", "X998877", "", "", "https://www.realtor.com/realestateandhomes-detail/x998877", true},
		{"longer number does not match", "12345", "", "Listing 123456 in Austin", "", false},
		{"prefix of another id", "12345", "", "MLS # 12345678", "", false},
		{"absent", "12345", "<html></html>", "nothing here", "https://example.com/listing/1", false},
		{"empty identifier", "", "anything", "anything", "https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.id, tt.html, tt.text, tt.url); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
