package main

import "timesheet-recon/backend/internal/cli"

func main() {
	cli.Execute()
}
