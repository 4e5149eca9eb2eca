// Package annotations reads the per-sample annotation tables written by the
// ISDB, SIRIUS and GNPS pipelines and collects the identifiers that still need
// metadata.
//
// Each pipeline has an explicit schema naming the columns it contributes.
// Tables are located inside every sample directory through configured path
// templates, one per acquisition mode. Missing tables are normal and
// contribute nothing; tables lacking a required column are reported and
// skipped. Identifiers already pending in the accumulator or known to the
// store are never added again.
package annotations
