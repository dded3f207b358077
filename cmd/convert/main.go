// Package main is the entry point for the asset converter.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/assetconv/internal/config"
	"github.com/Faultbox/assetconv/internal/converter"
	"github.com/Faultbox/assetconv/internal/logger"
	"github.com/Faultbox/assetconv/internal/scene"
	"github.com/Faultbox/assetconv/internal/texture"
)

func main() {
	os.Exit(run())
}

func printUsage() {
	fmt.Println(`convert - static model and texture converter

Usage:
  convert [flags] <source> <output-dir>

Reads a glTF 2.0 asset (.gltf or .glb) and writes <output-dir>/<name>.mdl plus
block-compressed .dds textures next to it.

Flags:`)
	flag.PrintDefaults()
}

func run() int {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			return 1
		}
		fmt.Printf("Wrote config to %s\n", path)
		return 0
	}

	args := config.Args()
	if len(args) != 2 {
		printUsage()
		return 0
	}
	src, outDir := args[0], args[1]

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		logger.Error("failed to create output directory", zap.String("path", outDir), zap.Error(err))
		return 1
	}

	var opts []texture.Option
	if cfg.Texture.PreviewDir != "" {
		opts = append(opts, texture.WithPreviewDir(cfg.Texture.PreviewDir))
	}
	if !cfg.Texture.CacheDecoded {
		opts = append(opts, texture.WithoutCache())
	}
	codec := texture.NewCodec(opts...)

	importer := scene.NewImporter(scene.Options{
		FlipWindingOrder: cfg.Import.FlipWindingOrder,
		GenerateTangents: cfg.Import.GenerateTangents,
	})

	dst, err := converter.ConvertFile(importer, codec, src, outDir, converter.Options{ModelName: cfg.Output.ModelName})
	if err != nil {
		logger.Error("conversion failed", zap.Error(err))
		return 1
	}

	hits, misses := codec.CacheStats()
	logger.Debug("texture cache", zap.Int("hits", hits), zap.Int("misses", misses))
	logger.Info("Saved to " + dst)
	return 0
}
