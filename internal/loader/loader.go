// Package loader parses the line-oriented CLRP instance format:
//
//	n                      customer count
//	m                      depot count
//	m lines of depot x y
//	n lines of customer x y
//	vehicle capacity
//	m lines of depot capacity
//	n lines of customer demand
//	m lines of depot opening cost
//	route setup cost
//	optional trailing terminator
//
// Blank lines are ignored. Instances are named D1..Dm and C1..Cn.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clrpsa/internal/model"
)

// Parse reads one instance from r. name ends up on the Instance.
func Parse(name string, r io.Reader) (*model.Instance, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines [][]string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, strings.Fields(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	p := &parser{name: name, lines: lines}
	nCustomers, err := p.intLine("customer count")
	if err != nil {
		return nil, err
	}
	nDepots, err := p.intLine("depot count")
	if err != nil {
		return nil, err
	}
	if nCustomers <= 0 || nDepots <= 0 {
		return nil, fmt.Errorf("parse %s: non-positive counts (%d customers, %d depots)", name, nCustomers, nDepots)
	}

	depotXY := make([][2]float64, nDepots)
	for i := range depotXY {
		if depotXY[i], err = p.pairLine("depot coordinates"); err != nil {
			return nil, err
		}
	}
	customerXY := make([][2]float64, nCustomers)
	for i := range customerXY {
		if customerXY[i], err = p.pairLine("customer coordinates"); err != nil {
			return nil, err
		}
	}
	vehicleCapacity, err := p.floatLine("vehicle capacity")
	if err != nil {
		return nil, err
	}
	depotCaps := make([]float64, nDepots)
	for i := range depotCaps {
		if depotCaps[i], err = p.floatLine("depot capacity"); err != nil {
			return nil, err
		}
	}
	demands := make([]float64, nCustomers)
	for i := range demands {
		if demands[i], err = p.floatLine("customer demand"); err != nil {
			return nil, err
		}
	}
	openingCosts := make([]float64, nDepots)
	for i := range openingCosts {
		if openingCosts[i], err = p.floatLine("depot opening cost"); err != nil {
			return nil, err
		}
	}
	routeSetupCost, err := p.floatLine("route setup cost")
	if err != nil {
		return nil, err
	}
	// Optional terminator line is ignored.

	depots := make([]model.Depot, nDepots)
	for i := range depots {
		depots[i] = model.Depot{
			Name:        fmt.Sprintf("D%d", i+1),
			X:           depotXY[i][0],
			Y:           depotXY[i][1],
			OpeningCost: openingCosts[i],
			Capacity:    depotCaps[i],
			RouteSetup:  routeSetupCost,
		}
	}
	customers := make([]model.Customer, nCustomers)
	for i := range customers {
		customers[i] = model.Customer{
			Name:   fmt.Sprintf("C%d", i+1),
			X:      customerXY[i][0],
			Y:      customerXY[i][1],
			Demand: demands[i],
		}
	}
	return model.NewInstance(name, depots, customers, vehicleCapacity, routeSetupCost), nil
}

// LoadDir scans dir's subdirectories for *.dat instance files. Malformed
// files are logged and skipped; the batch continues. Instances are named
// "<dataset>/<file>" without the extension.
func LoadDir(dir string) ([]*model.Instance, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("instance directory: %w", err)
	}
	var out []*model.Instance
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".dat") {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = d.Name()
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		f, err := os.Open(path)
		if err != nil {
			log.Printf("loader: skipping %s: %v", path, err)
			return nil
		}
		inst, parseErr := Parse(name, f)
		f.Close()
		if parseErr != nil {
			log.Printf("loader: skipping %s: %v", path, parseErr)
			return nil
		}
		out = append(out, inst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type parser struct {
	name  string
	lines [][]string
	pos   int
}

func (p *parser) next(what string) ([]string, error) {
	if p.pos >= len(p.lines) {
		return nil, fmt.Errorf("parse %s: unexpected end of file reading %s", p.name, what)
	}
	line := p.lines[p.pos]
	p.pos++
	return line, nil
}

func (p *parser) intLine(what string) (int, error) {
	f, err := p.floatLine(what)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func (p *parser) floatLine(what string) (float64, error) {
	line, err := p.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(line[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %s: %w", p.name, what, err)
	}
	return v, nil
}

func (p *parser) pairLine(what string) ([2]float64, error) {
	line, err := p.next(what)
	if err != nil {
		return [2]float64{}, err
	}
	if len(line) < 2 {
		return [2]float64{}, fmt.Errorf("parse %s: %s: want two fields, got %d", p.name, what, len(line))
	}
	x, err := strconv.ParseFloat(line[0], 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("parse %s: %s: %w", p.name, what, err)
	}
	y, err := strconv.ParseFloat(line[1], 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("parse %s: %s: %w", p.name, what, err)
	}
	return [2]float64{x, y}, nil
}
