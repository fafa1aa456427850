package contracts

import (
	"testing"
	"time"
)

func week(n int) time.Time {
	return time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*n)
}

func TestBar_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bar     Bar
		wantErr bool
	}{
		{
			name: "valid bar",
			bar:  Bar{Code: "600036", Date: week(0), Open: 10, High: 11, Low: 9.5, Close: 10.5, Volume: 1000},
		},
		{
			name:    "high below close",
			bar:     Bar{Code: "600036", Date: week(0), Open: 10, High: 10.2, Low: 9.5, Close: 10.5, Volume: 1000},
			wantErr: true,
		},
		{
			name:    "low above open",
			bar:     Bar{Code: "600036", Date: week(0), Open: 10, High: 11, Low: 10.2, Close: 10.5, Volume: 1000},
			wantErr: true,
		},
		{
			name:    "negative volume",
			bar:     Bar{Code: "600036", Date: week(0), Open: 10, High: 11, Low: 9.5, Close: 10.5, Volume: -1},
			wantErr: true,
		},
		{
			name: "flat zero-volume week",
			bar:  Bar{Code: "600036", Date: week(0), Open: 10, High: 10, Low: 10, Close: 10, Volume: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSeries(t *testing.T) {
	ok := []Bar{
		{Code: "600036", Date: week(0), Open: 10, High: 11, Low: 9, Close: 10, Volume: 100},
		{Code: "600036", Date: week(1), Open: 10, High: 12, Low: 10, Close: 11, Volume: 120},
	}
	if err := ValidateSeries(ok); err != nil {
		t.Fatalf("ValidateSeries() unexpected error: %v", err)
	}

	mixed := []Bar{ok[0], {Code: "601318", Date: week(1), Open: 10, High: 12, Low: 10, Close: 11, Volume: 120}}
	if err := ValidateSeries(mixed); err == nil {
		t.Error("ValidateSeries() accepted mixed codes")
	}

	duplicate := []Bar{ok[0], {Code: "600036", Date: week(0), Open: 10, High: 12, Low: 10, Close: 11, Volume: 120}}
	if err := ValidateSeries(duplicate); err == nil {
		t.Error("ValidateSeries() accepted duplicate date")
	}

	backwards := []Bar{ok[1], ok[0]}
	if err := ValidateSeries(backwards); err == nil {
		t.Error("ValidateSeries() accepted decreasing dates")
	}
}
