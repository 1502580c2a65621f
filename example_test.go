package rossdash_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/rossdash"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/rossfile"
	"github.com/arloliu/rossdash/section"
	"github.com/arloliu/rossdash/table"
)

func Example() {
	dir, _ := os.MkdirTemp("", "rossdash-example")
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "ross-stats.bin")

	f, _ := os.Create(path)
	w, _ := rossfile.NewWriter(f)
	for step := 1; step <= 4; step++ {
		_ = w.WritePE(section.PERecord{
			PEID:            0,
			EventsProcessed: uint32(100 * step),
			VirtualTime:     float64(10 * step),
			RealTime:        float64(step) / 4,
		})
	}
	_ = w.Close()
	_ = f.Close()

	quiet := logrus.New()
	quiet.SetLevel(logrus.WarnLevel)

	tel, src, err := rossdash.Open(path, rossfile.WithLogger(quiet))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(src.Format, tel.Len(format.KindPE))

	_ = tel.SetTimeRange(format.VirtualTime, 15, 35)
	proj, _ := tel.Query(format.KindPE, table.Query{Columns: []string{"events_processed"}})
	for _, row := range proj.All() {
		fmt.Println(row[0])
	}

	// Output:
	// log 4
	// 200
	// 300
}
