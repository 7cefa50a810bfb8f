// Package domain models Brazilian meteorological station readings, satellite
// fire hotspots and the fire-risk indices derived from them.
//
// # Data Sources
//
// Climate data comes from INMET (Instituto Nacional de Meteorologia) yearly
// CSV exports, one file per automatic station and year, available at
// https://portal.inmet.gov.br/dadoshistoricos. Hotspot detections come from
// the INPE (Instituto Nacional de Pesquisas Espaciais) BDQueimadas monthly
// CSV exports at https://terrabrasilis.dpi.inpe.br/queimadas/portal/.
//
// # INMET Conventions
//
// Files are Latin-1 encoded and semicolon separated. The first eight lines
// hold station metadata as "KEY:;value" pairs:
//
//	REGIAO:;CO
//	UF:;DF
//	ESTACAO:;BRASILIA
//	CODIGO (WMO):;A001
//	LATITUDE:;-15,78944444
//	LONGITUDE:;-47,92583332
//	ALTITUDE:;1160,96
//	DATA DE FUNDACAO:;07/05/00
//
// Numbers use a decimal comma. -9999 marks a missing reading. Station codes
// match A followed by three digits. Observations are hourly in UTC.
//
// Daily aggregation:
//
//	precipitation  sum of hourly totals
//	pressure       mean
//	wind speed     mean
//	temperature, humidity, dew point
//	               value at the reference hour (16 UTC, 13h Brasília time),
//	               daily mean when that hour is missing
//
// # INPE Conventions
//
// Hotspot files carry the state as its full upper-case Portuguese name
// ("SÃO PAULO"), converted to the two-letter UF code by [UFCode]. -999 marks
// a missing value. Detections are grouped per day, municipality, UF and
// biome, and each group is attached to its nearest INMET station.
//
// # Fire-Risk Indices
//
// All indices use the temperature (T, °C), relative humidity (H, %) and dew
// point (Td, °C) observed at 13h local time.
//
//	Angström:  B = 0.05·H − 0.1·(T − 27)
//	           B > 4.0 nulo | > 2.5 pequeno | > 2.0 medio | ≤ 2.0 alto
//
//	Telicyn:   I = Σ log10(T − Td) over the days since the last rain (> 2.5 mm)
//	           ≤ 2.0 nulo | ≤ 3.5 pequeno | ≤ 5.0 medio | > 5.0 alto
//
//	Nesterov:  G = Σ T·(T − Td) over the days since the last rain (> 3.0 mm)
//	           ≤ 300 nulo | ≤ 500 pequeno | ≤ 1000 medio | ≤ 4000 alto | muito_alto
//
// Cumulative indices are kept per station by [RiskAccumulator].
package domain
