// Command shipsdemo walks through the ships-and-sailors scenario end to
// end: build a universe, push some rows, delete a ship, flush, and print
// what survived the cascade.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/kasuganosora/tablestore/config"
	"github.com/kasuganosora/tablestore/event"
	"github.com/kasuganosora/tablestore/examples/shipsandsailors"
	"github.com/kasuganosora/tablestore/table"
	"github.com/kasuganosora/tablestore/tlog"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadOrDefault()
	logger := tlog.New(os.Stderr, tlog.ParseLevel(cfg.Log.Level))

	u, err := shipsandsailors.NewUniverse(ctx)
	if err != nil {
		log.Fatalf("building universe: %v", err)
	}

	shipsHandle, err := u.Table(shipsandsailors.DomainName, shipsandsailors.TableShips)
	if err != nil {
		log.Fatalf("looking up ships: %v", err)
	}
	sailorsHandle, err := u.Table(shipsandsailors.DomainName, shipsandsailors.TableSailors)
	if err != nil {
		log.Fatalf("looking up sailors: %v", err)
	}
	ships := shipsHandle.(*table.Table[shipsandsailors.Ship]).WithLogger(logger)
	sailors := sailorsHandle.(*table.Table[shipsandsailors.Sailor]).WithLogger(logger)

	shipWG := ships.Write()
	enterprise := shipWG.Push(shipsandsailors.Ship{Name: "Enterprise"})
	voyager := shipWG.Push(shipsandsailors.Ship{Name: "Voyager"})
	shipWG.NoFlush()
	shipWG.Release()

	sailorWG := sailors.Write()
	sailorWG.Push(shipsandsailors.Sailor{ShipID: enterprise.Index(), Name: "Kirk", Badge: uuid.New()})
	sailorWG.Push(shipsandsailors.Sailor{ShipID: enterprise.Index(), Name: "Spock", Badge: uuid.New()})
	sailorWG.Push(shipsandsailors.Sailor{ShipID: voyager.Index(), Name: "Janeway", Badge: uuid.New()})
	sailorWG.NoFlush()
	sailorWG.Release()

	fmt.Println("before delete:")
	printSailors(sailors)

	shipWG2 := ships.Write()
	if err := shipWG2.Delete(enterprise); err != nil {
		log.Fatalf("deleting ship: %v", err)
	}
	if err := shipWG2.Flush(ctx, u, event.Delete); err != nil {
		log.Fatalf("flushing ship deletion: %v", err)
	}

	fmt.Println("after deleting the Enterprise:")
	printSailors(sailors)
}

func printSailors(sailors *table.Table[shipsandsailors.Sailor]) {
	rg := sailors.Read()
	defer rg.Release()
	for _, id := range rg.Iter() {
		row := rg.At(id)
		fmt.Printf("  %s (ship #%d)\n", row.Name, row.ShipID)
	}
}
