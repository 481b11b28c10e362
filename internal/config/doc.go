// Package config loads the seqcat YAML configuration and watches input and
// config files for changes.
//
// Example config file:
//
//	output:
//	  format: table      # jsonl | json | csv | table
//	  limit: 100
//	engine:
//	  parallelism: 4     # 0 = one worker per CPU
//	  batch_size: 8192   # records per FASTA/FASTQ batch
//	  undefined_gc: null # null | zero
//	log:
//	  level: info
//	stats:
//	  path: /var/lib/node_exporter/seqcat.prom
package config
