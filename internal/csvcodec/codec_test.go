package csvcodec

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myexpenses/internal/core"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 5, 9, 7, 3, 0, time.Local) }

func TestEncodeEmptyIsHeader(t *testing.T) {
	assert.Equal(t, "Date,Time,Amount,Category,Description", Encode(nil))
	assert.Equal(t, "Date,Time,Amount,Category,Description", Encode([]core.Expense{}))
}

func TestEncodeQuoting(t *testing.T) {
	got := Encode([]core.Expense{
		{Date: "2024-01-01", Time: "12:00:00", Amount: 3.5, Category: "Food", Description: "Lunch"},
		{Date: "2024-01-02", Time: "08:00:00", Amount: 20, Category: "Bills", Description: `say "hi", ok`},
		{Date: "2024-01-03", Time: "08:00:00", Amount: 0.25, Category: "Other", Description: "two\nlines"},
	})
	want := "Date,Time,Amount,Category,Description\n" +
		"2024-01-01,12:00:00,3.5,Food,Lunch\n" +
		"2024-01-02,08:00:00,20,Bills,\"say \"\"hi\"\", ok\"\n" +
		"2024-01-03,08:00:00,0.25,Other,\"two\nlines\""
	assert.Equal(t, want, got)
}

func TestEncodeQuotesBareQuote(t *testing.T) {
	got := Encode([]core.Expense{{Date: "d", Time: "t", Amount: 1, Category: "c", Description: `5" screen`}})
	assert.Equal(t, "Date,Time,Amount,Category,Description\nd,t,1,c,\"5\"\" screen\"", got)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "myexpenses_2024-03-05.csv", Filename(fixedNow()))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want [][]string
	}{
		{"empty", "", nil},
		{"single cell", "a", [][]string{{"a"}}},
		{"trailing newline", "a,b\n", [][]string{{"a", "b"}}},
		{"crlf", "a,b\r\nc,d\r\n", [][]string{{"a", "b"}, {"c", "d"}}},
		{"lone cr", "a\rb", [][]string{{"a"}, {"b"}}},
		{"quoted comma", `x,"1,2",y`, [][]string{{"x", "1,2", "y"}}},
		{"escaped quote", `"a""b"`, [][]string{{`a"b`}}},
		{"quoted newline", "\"l1\nl2\",z", [][]string{{"l1\nl2", "z"}}},
		{"empty fields", ",,", [][]string{{"", "", ""}}},
		{"blank line kept mid-stream", "a\n\nb", [][]string{{"a"}, {""}, {"b"}}},
		{"unterminated quote", `"abc,def`, [][]string{{"abc,def"}}},
		{"quote mid-field", `ab"c,d"e`, [][]string{{"abc,de"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestDecodeScenarioQuotedDescription(t *testing.T) {
	text := "Date,Time,Amount,Category,Description\n2024-01-01,12:00:00,3.50,Food,\"Lunch, extra\""
	got, err := Decode(text, Options{Strict: true, Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.Expense{Date: "2024-01-01", Time: "12:00:00", Amount: 3.5, Category: "Food", Description: "Lunch, extra"}, got[0])
}

func TestDecodeUnparsableAmountIsZero(t *testing.T) {
	text := "Date,Time,Amount,Category,Description\n2024-01-01,12:00:00,abc,Food,x\n2024-01-01,12:00:00,Infinity,Food,y"
	got, err := Decode(text, Options{Strict: true, Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.0, got[0].Amount)
	assert.Equal(t, 0.0, got[1].Amount)
}

func TestDecodeAmountWithUnitUsesLeadingNumber(t *testing.T) {
	text := "Date,Time,Amount,Category,Description\n2024-01-01,12:00:00,12 EUR,Food,x\n2024-01-01,12:00:00,3.50€,Food,y"
	got, err := Decode(text, Options{Strict: true, Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 12.0, got[0].Amount)
	assert.Equal(t, 3.5, got[1].Amount)
}

func TestDecodeDefaults(t *testing.T) {
	text := "Date,Time,Amount,Category,Description\n,,,,\n2024-02-02"
	got, err := Decode(text, Options{Strict: true, Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, got, 2)

	want := core.Expense{Date: "2024-03-05", Time: "09:07:03", Amount: 0, Category: "Other", Description: ""}
	assert.Equal(t, want, got[0])
	assert.Equal(t, "2024-02-02", got[1].Date)
	assert.Equal(t, "09:07:03", got[1].Time)
	assert.Equal(t, "Other", got[1].Category)
}

func TestDecodeColumnOrderByName(t *testing.T) {
	text := " Category , Amount,Description,Time,Date\nFood,2,tea,10:00:00,2024-01-01"
	got, err := Decode(text, Options{Strict: true, Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.Expense{Date: "2024-01-01", Time: "10:00:00", Amount: 2, Category: "Food", Description: "tea"}, got[0])
}

func TestDecodeMissingDescriptionUsesFifthColumn(t *testing.T) {
	text := "Date,Time,Amount,Category,Note\n2024-01-01,12:00:00,1,Food,from note"
	got, err := Decode(text, Options{Strict: true, Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "from note", got[0].Description)
}

func TestDecodeSkipsBlankRows(t *testing.T) {
	text := "Date,Time,Amount,Category,Description\n\n2024-01-01,12:00:00,1,Food,a\n\n\n2024-01-02,12:00:00,2,Food,b\n"
	got, err := Decode(text, Options{Strict: true, Now: fixedNow})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDecodeEmptyInput(t *testing.T) {
	got, err := Decode("", Options{Strict: true})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Decode("Date,Time,Amount,Category,Description\n", Options{Strict: true})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeMalformedHeader(t *testing.T) {
	text := "When,Amount,Category\n2024-01-01,3,Food"

	_, err := Decode(text, Options{Strict: true, Now: fixedNow})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedHeader))
	assert.Contains(t, err.Error(), "Date, Time")

	got, err := Decode(text, Options{Strict: false, Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-05", got[0].Date)
	assert.Equal(t, 3.0, got[0].Amount)
	assert.Equal(t, "Food", got[0].Category)
}

func TestHeaderIsCaseSensitive(t *testing.T) {
	_, err := Decode("date,time,amount,category\n1,2,3,4", Options{Strict: true})
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestRoundTrip(t *testing.T) {
	list := []core.Expense{
		{Date: "2024-01-01", Time: "12:00:00", Amount: 3.5, Category: "Food", Description: "Lunch, extra"},
		{Date: "2024-01-02", Time: "00:00:01", Amount: 1234.5678, Category: "Bills", Description: `the "big" one`},
		{Date: "2024-01-03", Time: "23:59:59", Amount: 0, Category: "Other", Description: "multi\nline\r\ntext"},
		{Date: "2024-01-04", Time: "10:10:10", Amount: 0.1, Category: "A,B", Description: ""},
		{Date: "2024-01-05", Time: "10:10:10", Amount: 7, Category: "Health", Description: `"`},
	}
	got, err := Decode(Encode(list), Options{Strict: true, Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, list, got)
}
