package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

var keyColumns = []string{"TARGET_ID", "SOURCE_ID", "PERIOD", "VIEW"}

type export struct {
	Headers []string
	Rows    map[string]map[string]string
}

type rowDiff struct {
	Key      string
	Column   string
	Legacy   string
	Current  string
	Critical bool
}

type report struct {
	Missing []string
	Extra   []string
	Diffs   []rowDiff
}

func (r report) breaking() int {
	n := len(r.Missing) + len(r.Extra)
	for _, d := range r.Diffs {
		if d.Critical {
			n++
		}
	}
	return n
}

func main() {
	var (
		legacyPath  string
		currentPath string
		critical    string
		limit       int
	)

	flag.StringVar(&legacyPath, "legacy", "", "CSV export produced by the legacy job")
	flag.StringVar(&currentPath, "current", "", "CSV export produced by timeline-sync")
	flag.StringVar(&critical, "critical", "STATUS,STUDENT_TYPE,LOAD,LEVEL,ADMIT_PERIOD,PROGRAM_1", "Columns whose differences are breaking")
	flag.IntVar(&limit, "limit", 50, "Maximum number of differences printed per section")
	flag.Parse()

	if legacyPath == "" || currentPath == "" {
		log.Fatal("both -legacy and -current are required")
	}

	legacy, err := loadExport(legacyPath)
	if err != nil {
		log.Fatalf("failed to load legacy export: %v", err)
	}
	current, err := loadExport(currentPath)
	if err != nil {
		log.Fatalf("failed to load current export: %v", err)
	}

	rep := compare(legacy, current, criticalSet(critical))
	printReport(rep, limit)

	breaking := rep.breaking()
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, len(rep.Missing)+len(rep.Extra)+len(rep.Diffs)-breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func criticalSet(raw string) map[string]bool {
	set := make(map[string]bool)
	for _, col := range strings.Split(raw, ",") {
		if col = strings.TrimSpace(col); col != "" {
			set[strings.ToUpper(col)] = true
		}
	}
	return set
}

func loadExport(path string) (*export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readExport(f)
}

func readExport(r io.Reader) (*export, error) {
	reader := csv.NewReader(r)
	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty export")
		}
		return nil, err
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, k := range keyColumns {
		if _, ok := index[k]; !ok {
			return nil, fmt.Errorf("missing key column %s", k)
		}
	}

	exp := &export{Headers: headers, Rows: make(map[string]map[string]string)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(headers))
		for name, i := range index {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		key := rowKey(row)
		if _, dup := exp.Rows[key]; dup {
			return nil, fmt.Errorf("duplicate row %s", key)
		}
		exp.Rows[key] = row
	}
	return exp, nil
}

func rowKey(row map[string]string) string {
	parts := make([]string, len(keyColumns))
	for i, k := range keyColumns {
		parts[i] = row[k]
	}
	return strings.Join(parts, "|")
}

func compare(legacy, current *export, critical map[string]bool) report {
	var rep report
	for key, lrow := range legacy.Rows {
		crow, ok := current.Rows[key]
		if !ok {
			rep.Missing = append(rep.Missing, key)
			continue
		}
		for col, lv := range lrow {
			cv, present := crow[col]
			if !present || cv == lv {
				continue
			}
			rep.Diffs = append(rep.Diffs, rowDiff{Key: key, Column: col, Legacy: lv, Current: cv, Critical: critical[col]})
		}
	}
	for key := range current.Rows {
		if _, ok := legacy.Rows[key]; !ok {
			rep.Extra = append(rep.Extra, key)
		}
	}

	sort.Strings(rep.Missing)
	sort.Strings(rep.Extra)
	sort.Slice(rep.Diffs, func(i, j int) bool {
		if rep.Diffs[i].Key != rep.Diffs[j].Key {
			return rep.Diffs[i].Key < rep.Diffs[j].Key
		}
		return rep.Diffs[i].Column < rep.Diffs[j].Column
	})
	return rep
}

func printReport(rep report, limit int) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	printKeys("Missing from current", rep.Missing, limit)
	printKeys("Only in current", rep.Extra, limit)

	fmt.Printf("Column differences: %d\n", len(rep.Diffs))
	for i, d := range rep.Diffs {
		if i == limit {
			fmt.Printf("  ... %d more\n", len(rep.Diffs)-limit)
			break
		}
		level := "optional"
		if d.Critical {
			level = "critical"
		}
		fmt.Printf("  [%s] %s %s: %q -> %q\n", level, d.Key, d.Column, d.Legacy, d.Current)
	}
}

func printKeys(title string, keys []string, limit int) {
	fmt.Printf("%s: %d\n", title, len(keys))
	for i, k := range keys {
		if i == limit {
			fmt.Printf("  ... %d more\n", len(keys)-limit)
			return
		}
		fmt.Printf("  %s\n", k)
	}
}
