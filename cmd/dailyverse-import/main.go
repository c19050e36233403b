// main.go — утилита импорта версий.
// Создаёт файл версии из TSV-выгрузки:
//
//	dailyverse-import -out kjv.db -name "KJV" verses.tsv
//
// При аргументе "-" выгрузка читается со стандартного ввода.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/bigkaa/dailyverse/internal/importer"
)

func main() {
	out := flag.String("out", "", "путь создаваемого файла версии (обязательно)")
	name := flag.String("name", "", "человекочитаемое имя версии (обязательно)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Использование: %s -out FILE -name NAME TSV\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *out == "" || *name == "" || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var src io.Reader
	if path := flag.Arg(0); path == "-" {
		src = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("Открытие выгрузки: %v", err)
		}
		defer f.Close()
		src = f
	}

	if err := importer.Migrate(*out, logger); err != nil {
		log.Fatalf("Применение схемы: %v", err)
	}

	count, err := importer.ImportTSV(context.Background(), *out, *name, src, logger)
	if err != nil {
		log.Fatalf("Импорт: %v", err)
	}

	fmt.Printf("Импортировано %d стихов в %s\n", count, *out)
}
