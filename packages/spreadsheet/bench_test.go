package spreadsheet

import (
	"fmt"
	"strconv"
	"testing"
)

func newBenchWorkbook(b *testing.B, sheets ...string) *Workbook {
	b.Helper()
	wb := NewWorkbook()
	for _, name := range sheets {
		if _, _, err := wb.NewSheet(name); err != nil {
			b.Fatal(err)
		}
	}
	return wb
}

func mustSet(b *testing.B, wb *Workbook, sheet, addr, contents string) {
	b.Helper()
	if err := wb.SetCellContents(sheet, addr, contents); err != nil {
		b.Fatal(err)
	}
}

func BenchmarkLargeCellPopulation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		wb := newBenchWorkbook(b, "Sheet1")
		for row := 1; row <= 100; row++ {
			for col := 1; col <= 26; col++ {
				addr := Address{Row: row, Col: col}.String()
				mustSet(b, wb, "Sheet1", addr, strconv.Itoa(row*col))
			}
		}
	}
}

func BenchmarkFormulaDependencyChain(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	mustSet(b, wb, "Sheet1", "A1", "1")
	for i := 2; i <= 100; i++ {
		mustSet(b, wb, "Sheet1", fmt.Sprintf("A%d", i), fmt.Sprintf("=A%d+1", i-1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Sheet1", "A1", strconv.Itoa(i))
	}
}

func BenchmarkWideDependencyFanOut(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	mustSet(b, wb, "Sheet1", "A1", "100")
	for i := 2; i <= 500; i++ {
		mustSet(b, wb, "Sheet1", fmt.Sprintf("B%d", i), "=A1*2")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Sheet1", "A1", strconv.Itoa(i))
	}
}

func BenchmarkLargeRangeSUM(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	for i := 1; i <= 1000; i++ {
		mustSet(b, wb, "Sheet1", fmt.Sprintf("A%d", i), strconv.Itoa(i))
	}
	mustSet(b, wb, "Sheet1", "B1", "=SUM(A1:A1000)")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Sheet1", "A500", strconv.Itoa(i))
	}
}

func BenchmarkComplexNestedFormulas(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	for i := 1; i <= 20; i++ {
		mustSet(b, wb, "Sheet1", fmt.Sprintf("A%d", i), strconv.Itoa(i))
		mustSet(b, wb, "Sheet1", fmt.Sprintf("B%d", i), strconv.Itoa(i*2))
	}
	mustSet(b, wb, "Sheet1", "C1", "=IF(AVERAGE(A1:A20)>10, SUM(B1:B20), MAX(A1:A20))")
	mustSet(b, wb, "Sheet1", "D1", "=ROUND(C1*3.14159, 2)")
	mustSet(b, wb, "Sheet1", "E1", "=IF(D1>100, AVERAGE(A1:A20), MIN(B1:B20))")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Sheet1", "A1", strconv.Itoa(i%40))
	}
}

func BenchmarkMultiWorksheetReferences(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1", "Data", "Summary")
	for i := 1; i <= 100; i++ {
		mustSet(b, wb, "Data", fmt.Sprintf("A%d", i), strconv.Itoa(i))
	}
	mustSet(b, wb, "Summary", "A1", "=SUM(Data!A1:A100)")
	mustSet(b, wb, "Summary", "B1", "=AVERAGE(Data!A1:A100)")
	mustSet(b, wb, "Summary", "C1", "=MAX(Data!A1:A100)")
	mustSet(b, wb, "Summary", "D1", "=MIN(Data!A1:A100)")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Data", "A50", strconv.Itoa(i))
	}
}

func BenchmarkCascadingUpdates(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	for row := 1; row <= 50; row++ {
		for col := 1; col <= 10; col++ {
			addr := Address{Row: row, Col: col}.String()
			if col == 1 {
				mustSet(b, wb, "Sheet1", addr, strconv.Itoa(row))
			} else {
				prev := Address{Row: row, Col: col - 1}.String()
				mustSet(b, wb, "Sheet1", addr, "="+prev+"*2")
			}
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Sheet1", "A1", strconv.Itoa(i%100))
	}
}

func BenchmarkSparseMatrix(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	for i := 1; i <= 1000; i += 10 {
		for j := 1; j <= 1000; j += 10 {
			mustSet(b, wb, "Sheet1", Address{Row: i, Col: j}.String(), strconv.Itoa(i+j))
		}
	}
	mustSet(b, wb, "Sheet1", "ZZ1", "=SUM(A1:ALL1000)")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Sheet1", "A1", strconv.Itoa(i))
	}
}

func BenchmarkCircularReferenceDetection(b *testing.B) {
	for i := 0; i < b.N; i++ {
		wb := newBenchWorkbook(b, "Sheet1")
		mustSet(b, wb, "Sheet1", "A1", "=B1+C1")
		mustSet(b, wb, "Sheet1", "B1", "=C1+D1")
		mustSet(b, wb, "Sheet1", "C1", "=D1+E1")
		mustSet(b, wb, "Sheet1", "D1", "=E1+F1")
		mustSet(b, wb, "Sheet1", "E1", "=F1+G1")
		mustSet(b, wb, "Sheet1", "F1", "=G1+H1")
		mustSet(b, wb, "Sheet1", "G1", "=H1+A1")
		mustSet(b, wb, "Sheet1", "H1", "=A1")
	}
}

func BenchmarkManySmallFormulas(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	err := wb.Batch(func() error {
		for row := 1; row <= 100; row++ {
			r := strconv.Itoa(row)
			mustSet(b, wb, "Sheet1", "A"+r, r)
			mustSet(b, wb, "Sheet1", "B"+r, "=A"+r+"*2")
			mustSet(b, wb, "Sheet1", "C"+r, "=B"+r+"+A"+r)
			mustSet(b, wb, "Sheet1", "D"+r, "=C"+r+"/2")
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Sheet1", "A"+strconv.Itoa(i%100+1), strconv.Itoa(i))
	}
}

func BenchmarkStringConcatenation(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	for i := 1; i <= 100; i++ {
		mustSet(b, wb, "Sheet1", fmt.Sprintf("A%d", i), fmt.Sprintf("text%d", i))
		mustSet(b, wb, "Sheet1", fmt.Sprintf("B%d", i), fmt.Sprintf(`=A%d&"-suffix"`, i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Sheet1", "A1", fmt.Sprintf("text%d", i))
	}
}

func BenchmarkConditionalLogic(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	for i := 1; i <= 200; i++ {
		mustSet(b, wb, "Sheet1", fmt.Sprintf("A%d", i), strconv.Itoa(i))
		mustSet(b, wb, "Sheet1", fmt.Sprintf("B%d", i), fmt.Sprintf(`=IF(A%d>100, A%d*2, A%d/2)`, i, i, i))
		mustSet(b, wb, "Sheet1", fmt.Sprintf("C%d", i), fmt.Sprintf(`=AND(A%d>50, A%d<150)`, i, i))
		mustSet(b, wb, "Sheet1", fmt.Sprintf("D%d", i), fmt.Sprintf(`=OR(A%d<25, A%d>175)`, i, i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Sheet1", "A100", strconv.Itoa(i%200))
	}
}

func BenchmarkDirtyPropagation(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	grid := 20
	for row := 1; row <= grid; row++ {
		for col := 1; col <= grid; col++ {
			addr := Address{Row: row, Col: col}.String()
			left := Address{Row: row, Col: col - 1}.String()
			top := Address{Row: row - 1, Col: col}.String()
			switch {
			case row == 1 && col == 1:
				mustSet(b, wb, "Sheet1", addr, "1")
			case row == 1:
				mustSet(b, wb, "Sheet1", addr, "="+left+"+1")
			case col == 1:
				mustSet(b, wb, "Sheet1", addr, "="+top+"+1")
			default:
				mustSet(b, wb, "Sheet1", addr, "="+left+"+"+top)
			}
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustSet(b, wb, "Sheet1", "A1", strconv.Itoa(i%100))
	}
}

func BenchmarkSortRegion(b *testing.B) {
	wb := newBenchWorkbook(b, "Sheet1")
	for row := 1; row <= 500; row++ {
		mustSet(b, wb, "Sheet1", fmt.Sprintf("A%d", row), strconv.Itoa((row*7919)%500))
		mustSet(b, wb, "Sheet1", fmt.Sprintf("B%d", row), fmt.Sprintf("=A%d*2", row))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cols := []int{1}
		if i%2 == 1 {
			cols = []int{-1}
		}
		if err := wb.SortRegion("Sheet1", "A1", "B500", cols); err != nil {
			b.Fatal(err)
		}
	}
}
