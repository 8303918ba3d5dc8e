// cmd/tools/source-uploader/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"sector-insights/internal/common/errors"
	"sector-insights/internal/common/logger"
	"sector-insights/internal/tools/sourceupload"
)

func main() {
	envPath := flag.String("env", ".env", "path to the .env file with upload settings")
	timeout := flag.Duration("timeout", 30*time.Minute, "upload timeout")
	flag.Parse()

	zapLog := logger.New("info", "console", "stderr")
	defer zapLog.Sync()

	settings, err := sourceupload.LoadSettings(*envPath)
	if err != nil {
		exit(zapLog, err)
	}

	sourceupload.Diagnose(os.Stdout, settings)
	if missing := settings.Missing(); len(missing) > 0 {
		fmt.Println("Stopping: check that the .env names match the expected variables.")
		exit(zapLog, errors.NewUploadPrerequisiteError(missing))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := sourceupload.NewS3Uploader(ctx, settings)
	if err != nil {
		exit(zapLog, err)
	}

	location, err := sourceupload.NewRunner(client, logger.NewZapAdapter(zapLog)).Run(ctx, settings)
	if err != nil {
		exit(zapLog, err)
	}

	fmt.Printf("Uploaded %s to %s\n", settings.FilePath, location)
}

func exit(log *zap.Logger, err error) {
	stdErr := errors.Normalize(err)
	log.Error("upload aborted",
		zap.String("errorCode", string(stdErr.Code)),
		zap.String("message", stdErr.Message),
		zap.String("details", stdErr.Details),
	)
	_ = log.Sync()
	os.Exit(1)
}
