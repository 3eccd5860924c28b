package upstream

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

// SheetNames opens a workbook returned by the conversion service and lists
// its sheets. It only reads data.
func SheetNames(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.GetSheetList(), nil
}
